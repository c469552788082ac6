package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/heysubinoy/pyazkv/pkg/client"
	"github.com/heysubinoy/pyazkv/pkg/kv"
	"github.com/spf13/cobra"
)

const defaultAddr = "http://127.0.0.1:80"

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)

	root := &cobra.Command{
		Use:           "kv-cli",
		Short:         "Command line client for a pyazkv server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&addr, "addr", defaultString(os.Getenv("PYAZKV_ADDR"), defaultAddr), "server base URL (env PYAZKV_ADDR)")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Second, "request timeout")

	newClient := func() (*client.Client, context.Context, context.CancelFunc) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		return client.New(addr, &http.Client{}), ctx, cancel
	}

	root.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print the value stored under key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel := newClient()
			defer cancel()

			pair, err := c.Get(ctx, args[0])
			if errors.Is(err, kv.ErrNotFound) {
				return fmt.Errorf("key '%s' not found", args[0])
			}
			if err != nil {
				return fmt.Errorf("get failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), pair.Value)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store value under key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel := newClient()
			defer cancel()

			if err := c.Set(ctx, args[0], args[1]); err != nil {
				return fmt.Errorf("set failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set '%s' = '%s'\n", args[0], args[1])
			return nil
		},
	})

	return root
}

func defaultString(v, d string) string {
	if v == "" {
		return d
	}
	return v
}
