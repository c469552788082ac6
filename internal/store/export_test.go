package store

// AbortCriticalSection panics inside s's critical section, leaving s
// unavailable.
func AbortCriticalSection(s *MemStore, reason any) error {
	return s.locked(func(map[string]string) { panic(reason) })
}
