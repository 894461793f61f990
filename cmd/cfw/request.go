package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cfgwire/cfgwire/internal/coap"
	"github.com/cfgwire/cfgwire/internal/coreconf"
	"github.com/cfgwire/cfgwire/internal/render"
	"github.com/cfgwire/cfgwire/internal/store"
)

// ---------------------------------------------------------------------------
// Configuration operations (CORECONF GET/FETCH/iPATCH/POST/PUT/DELETE)
// ---------------------------------------------------------------------------

func getCmd() *cobra.Command {
	return operationCmd(coreconf.OpGet, "get [path]", "Read configuration or state data")
}

func fetchCmd() *cobra.Command {
	return operationCmd(coreconf.OpFetch, "fetch [path]", "Fetch specific instances by identifier list")
}

func ipatchCmd() *cobra.Command {
	return operationCmd(coreconf.OpIPatch, "ipatch [path]", "Merge-patch configuration instances")
}

func postCmd() *cobra.Command {
	return operationCmd(coreconf.OpPost, "post [path]", "Create configuration instances or invoke an action")
}

func putCmd() *cobra.Command {
	return operationCmd(coreconf.OpPut, "put [path]", "Replace datastore data")
}

func deleteCmd() *cobra.Command {
	return operationCmd(coreconf.OpDelete, "delete [path]", "Delete configuration data")
}

func operationCmd(op coreconf.Op, use, short string) *cobra.Command {
	var (
		inputFlag  string
		formatFlag string
		queryFlags []string
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}

			var body []byte
			if inputFlag != "" {
				text, err := readInput(inputFlag)
				if err != nil {
					return err
				}
				body, err = render.ParseBody(text, formatFlag)
				if err != nil {
					return err
				}
			}

			return runOperation(cmd.Context(), coreconf.Request{
				Op:      op,
				Path:    path,
				Queries: queryFlags,
				Body:    body,
			})
		},
	}

	policy, err := coreconf.PolicyFor(op)
	if err == nil && policy.RequiresBody {
		cmd.Flags().StringVarP(&inputFlag, "input", "i", "-", "Body file, or - for stdin")
	} else {
		cmd.Flags().StringVarP(&inputFlag, "input", "i", "", "Body file, or - for stdin")
	}
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "yaml", "Body format: yaml, json or cbor-hex")
	cmd.Flags().StringArrayVarP(&queryFlags, "query", "q", nil, "Uri-Query parameter (repeatable)")
	return cmd
}

func readInput(source string) ([]byte, error) {
	if source == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(source)
}

func runOperation(ctx context.Context, req coreconf.Request) error {
	name, sess, err := openSession(ctx, traceHandlers(os.Stderr))
	if err != nil {
		return err
	}
	defer sess.Close()

	msg, err := coreconf.NewMessage(req, sess.NextMessageID(), sess.NewToken())
	if err != nil {
		return err
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeoutFlag)
	defer cancel()

	start := time.Now()
	resp, err := sess.Exchange(reqCtx, msg)
	recordExchange(name, req, resp, err)
	if err != nil {
		return err
	}
	slog.Debug("exchange completed", "code", resp.Code, "elapsed", time.Since(start))

	if !resp.Code.IsSuccess() {
		if len(resp.Payload) > 0 {
			printPayload(resp)
		}
		return fmt.Errorf("device answered %s", resp.Code)
	}
	if len(resp.Payload) > 0 {
		return printPayload(resp)
	}
	fmt.Printf("%s\n", resp.Code)
	return nil
}

func printPayload(resp *coap.Message) error {
	if outputFlag == "cbor-hex" {
		fmt.Println(hex.EncodeToString(resp.Payload))
		return nil
	}

	doc, err := render.Decode(resp.Payload)
	if err != nil {
		// Not CBOR after all (e.g. a text diagnostic): show it raw.
		fmt.Printf("%s\n", resp.Payload)
		return nil
	}

	var out string
	switch outputFlag {
	case "json":
		out, err = render.ToJSON(doc)
	case "yaml":
		out, err = render.ToYAML(doc)
	default:
		return fmt.Errorf("unknown output format %q", outputFlag)
	}
	if err != nil {
		return err
	}
	fmt.Print(out)
	if out != "" && out[len(out)-1] != '\n' {
		fmt.Println()
	}
	return nil
}

// recordExchange appends the exchange to the local history store. History is
// best-effort: a store failure only logs.
func recordExchange(device string, req coreconf.Request, resp *coap.Message, exchErr error) {
	s, err := store.NewSQLiteStore(dataDir())
	if err != nil {
		slog.Warn("history store unavailable", "err", err)
		return
	}
	defer s.Close()

	rec := store.ExchangeRecord{
		Device:       device,
		Operation:    string(req.Op),
		Path:         req.Path,
		RequestBytes: len(req.Body),
	}
	if resp != nil {
		rec.ResponseCode = resp.Code.String()
		rec.ResponseBytes = len(resp.Payload)
	}
	if exchErr != nil {
		rec.Error = exchErr.Error()
	}
	if err := s.RecordExchange(context.Background(), rec); err != nil {
		slog.Warn("recording exchange failed", "err", err)
	}
}
