package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cfgwire/cfgwire/internal/config"
	"github.com/cfgwire/cfgwire/internal/connection"
	"github.com/cfgwire/cfgwire/internal/session"
)

var (
	deviceFlag  string
	baudFlag    int
	timeoutFlag time.Duration
	outputFlag  string
	verboseFlag bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cfw",
		Short: "Manage embedded network devices over a MUP1/CoAP serial link",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verboseFlag {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	rootCmd.PersistentFlags().StringVarP(&deviceFlag, "device", "d", "", "Device name from config.toml, or a literal target (/dev/ttyACM0, tcp://host:port, ws://...)")
	rootCmd.PersistentFlags().IntVar(&baudFlag, "baud", 0, "Baud rate for serial targets (default 115200)")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 5*time.Second, "Per-request timeout")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "yaml", "Response rendering: yaml, json or cbor-hex")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		getCmd(),
		fetchCmd(),
		ipatchCmd(),
		postCmd(),
		putCmd(),
		deleteCmd(),
		pingCmd(),
		consoleCmd(),
		devicesCmd(),
		historyCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// dataDir returns ~/.cfgwire, creating nothing.
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cfgwire"
	}
	return filepath.Join(home, ".cfgwire")
}

// openSession resolves the selected device, dials its transport, and starts
// a link session on it. The returned name identifies the device in logs and
// history records.
func openSession(ctx context.Context, handlers session.Handlers) (name string, s *session.Session, err error) {
	cfg, err := config.Load(dataDir())
	if err != nil {
		return "", nil, err
	}
	name, dev, err := cfg.Resolve(deviceFlag)
	if err != nil {
		return "", nil, err
	}

	baud := dev.Baud
	if baudFlag != 0 {
		baud = baudFlag
	}
	rw, err := connection.Dial(ctx, dev.Target, connection.Options{Baud: baud})
	if err != nil {
		return "", nil, err
	}
	slog.Debug("link opened", "device", name, "target", dev.Target)
	return name, session.New(rw, handlers), nil
}

// traceHandlers routes device trace and announce text to w.
func traceHandlers(w io.Writer) session.Handlers {
	return session.Handlers{
		Trace:    func(text string) { fmt.Fprint(w, text) },
		Announce: func(text string) { fmt.Fprintf(w, "announce: %s\n", text) },
	}
}
