package main

import (
	"encoding/json"
	"fmt"

	"github.com/danmuck/manifestd/internal/manifest"
	"github.com/danmuck/manifestd/internal/validate"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var failLabel = color.New(color.FgRed, color.Bold)

type validateOptions struct {
	Manifest string
	Format   string
	Rules    string
}

func newValidateCommand(root *rootOptions) *cobra.Command {
	opts := &validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a manifest file against a rule file",
		Long: `Load a manifest and a TOML rule file locally and report every node that
fails its rule. Exits non-zero when any rule fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Manifest, "manifest", "", "manifest file (xml or yaml)")
	cmd.Flags().StringVar(&opts.Format, "manifest-format", string(manifest.FormatAuto), "manifest format (auto|xml|yaml)")
	cmd.Flags().StringVar(&opts.Rules, "rules", "", "TOML rule file")
	_ = cmd.MarkFlagRequired("manifest")
	_ = cmd.MarkFlagRequired("rules")
	return cmd
}

func runValidate(cmd *cobra.Command, root *rootOptions, opts *validateOptions) error {
	format, err := manifest.ParseFormat(opts.Format)
	if err != nil {
		return err
	}
	rules, err := validate.LoadRules(opts.Rules)
	if err != nil {
		return err
	}
	store, err := manifest.Load(opts.Manifest, format)
	if err != nil {
		return err
	}
	report := validate.NewEngine(rules).Run(store)

	out := cmd.OutOrStdout()
	if root.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		for _, f := range report.Failures {
			line := fmt.Sprintf("%s %s %s=%q", failLabel.Sprint("FAIL"), f.Predicate, f.Path, f.Value)
			if f.Message != "" {
				line += ": " + f.Message
			}
			fmt.Fprintln(out, line)
		}
		fmt.Fprintf(out, "%d rules, %d evaluations, %d failures\n", report.Rules, report.Evaluated, len(report.Failures))
	}
	if !report.OK() {
		return fmt.Errorf("%w: %d failures", ErrValidationFailed, len(report.Failures))
	}
	return nil
}
