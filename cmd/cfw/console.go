package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// ---------------------------------------------------------------------------
// pingCmd
// ---------------------------------------------------------------------------

func pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the link with a MUP1 ping frame",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, sess, err := openSession(cmd.Context(), traceHandlers(os.Stderr))
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
			defer cancel()

			start := time.Now()
			if err := sess.Ping(ctx); err != nil {
				return fmt.Errorf("ping %s: %w", name, err)
			}
			fmt.Printf("pong from %s in %s\n", name, time.Since(start).Round(time.Microsecond))
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// consoleCmd
// ---------------------------------------------------------------------------

func consoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Stream device trace and announce output",
		Long:  "Attaches to the link and prints trace ('T') and announce ('A') frames as they arrive.\nPress q (on a terminal) or Ctrl-C to leave.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sess, err := openSession(cmd.Context(), traceHandlers(os.Stdout))
			if err != nil {
				return err
			}
			defer sess.Close()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			quit := make(chan struct{})
			if isatty.IsTerminal(os.Stdin.Fd()) {
				// Raw mode so a bare q leaves without waiting for Enter.
				oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
				if err == nil {
					defer term.Restore(int(os.Stdin.Fd()), oldState)
					go func() {
						buf := make([]byte, 1)
						for {
							if _, err := os.Stdin.Read(buf); err != nil {
								return
							}
							if buf[0] == 'q' || buf[0] == 3 { // q or Ctrl-C
								close(quit)
								return
							}
						}
					}()
				}
			}

			select {
			case <-sigCh:
			case <-quit:
			case <-cmd.Context().Done():
			}
			return nil
		},
	}
}
