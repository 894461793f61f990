package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cfgwire/cfgwire/internal/config"
	"github.com/cfgwire/cfgwire/internal/connection"
	"github.com/cfgwire/cfgwire/internal/store"
)

// ---------------------------------------------------------------------------
// devicesCmd
// ---------------------------------------------------------------------------

func devicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List configured devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(dataDir())
			if err != nil {
				return err
			}
			if len(cfg.Devices) == 0 {
				fmt.Println("no devices configured (edit ~/.cfgwire/config.toml or set CFGWIRE_TARGET)")
				return nil
			}

			names := make([]string, 0, len(cfg.Devices))
			for name := range cfg.Devices {
				names = append(names, name)
			}
			sort.Strings(names)

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTARGET\tBAUD")
			for _, name := range names {
				dev := cfg.Devices[name]
				baud := dev.Baud
				if baud == 0 {
					baud = connection.DefaultBaud
				}
				marker := ""
				if name == cfg.DefaultDevice {
					marker = " (default)"
				}
				fmt.Fprintf(w, "%s%s\t%s\t%d\n", name, marker, dev.Target, baud)
			}
			return w.Flush()
		},
	}
}

// ---------------------------------------------------------------------------
// historyCmd
// ---------------------------------------------------------------------------

func historyCmd() *cobra.Command {
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent configuration exchanges",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.NewSQLiteStore(dataDir())
			if err != nil {
				return err
			}
			defer s.Close()

			recs, err := s.ListExchanges(cmd.Context(), deviceFlag, limitFlag)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Println("no recorded exchanges")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tDEVICE\tOP\tPATH\tCODE\tREQ\tRESP")
			for _, r := range recs {
				code := r.ResponseCode
				if code == "" {
					code = "error: " + r.Error
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%dB\t%dB\n",
					r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					r.Device, r.Operation, r.Path, code, r.RequestBytes, r.ResponseBytes)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "Maximum entries to show")
	return cmd
}
