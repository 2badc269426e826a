package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/danmuck/manifestd/internal/logging"
	"github.com/danmuck/manifestd/internal/protocol"
	"github.com/danmuck/manifestd/internal/protocol/frame"
	"github.com/danmuck/manifestd/internal/query"
	"github.com/spf13/cobra"
)

var ErrValidationFailed = errors.New("manifestq: validation failed")

type rootOptions struct {
	Addr     string
	Timeout  time.Duration
	Encoding string
	Format   string
	Retries  int
	// MaxFrameBytes must be at least the server's max_frame_bytes.
	MaxFrameBytes uint32
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "manifestq",
		Short:         "Query and validate manifest trees",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.ConfigureRuntime()
			if opts.Format != "text" && opts.Format != "json" {
				return fmt.Errorf("invalid format %q: must be text or json", opts.Format)
			}
			_, err := protocol.ParseEncoding(opts.Encoding)
			return err
		},
	}
	cmd.PersistentFlags().StringVar(&opts.Addr, "addr", "127.0.0.1:7400", "manifestd query address")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "per-request timeout")
	cmd.PersistentFlags().StringVar(&opts.Encoding, "encoding", string(protocol.EncodingSentinel), "value encoding (sentinel|tlv)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")
	cmd.PersistentFlags().IntVar(&opts.Retries, "retries", 3, "dial attempts")
	cmd.PersistentFlags().Uint32Var(&opts.MaxFrameBytes, "max-frame-bytes", frame.DefaultLimits().MaxPayloadBytes,
		"largest response frame accepted; match the server's max_frame_bytes")

	cmd.AddCommand(newGetCommand(opts))
	cmd.AddCommand(newKeyCommand(opts))
	cmd.AddCommand(newValidateCommand(opts))
	cmd.AddCommand(newInitCommand())
	return cmd
}

func (o *rootOptions) clientConfig() (query.ClientConfig, error) {
	cfg := query.DefaultClientConfig()
	cfg.Timeout = o.Timeout
	enc, err := protocol.ParseEncoding(o.Encoding)
	if err != nil {
		return cfg, err
	}
	cfg.Encoding = enc
	cfg.Limits = frame.Limits{MaxPayloadBytes: o.MaxFrameBytes}.WithDefaults()
	return cfg, nil
}

func (o *rootOptions) dial(ctx context.Context) (*query.Client, error) {
	cfg, err := o.clientConfig()
	if err != nil {
		return nil, err
	}
	return query.DialRetry(ctx, o.Addr, cfg, o.Retries)
}

type result struct {
	NodePath string   `json:"nodepath"`
	Values   []string `json:"values"`
}

func writeResults(w io.Writer, format string, results []result) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	for _, r := range results {
		if len(results) > 1 {
			fmt.Fprintf(w, "# %s (%d)\n", r.NodePath, len(r.Values))
		}
		for _, v := range r.Values {
			fmt.Fprintln(w, v)
		}
	}
	return nil
}
