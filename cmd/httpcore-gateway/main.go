// Command httpcore-gateway is a runnable example binary exposing the
// core's config surface: it loads a YAML config, binds one listener per
// configured endpoint, and serves a trivial echo application session so
// the transport, fsm, and config packages can be exercised end to end.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "httpcore-gateway",
		Short: "Example gateway binary built on the httpcore transport core",
	}
	cmd.AddCommand(newServeCmd())
	return cmd
}
