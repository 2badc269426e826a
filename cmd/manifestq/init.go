package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/danmuck/manifestd/internal/config"
	"github.com/spf13/cobra"
)

func newInitCommand() *cobra.Command {
	var (
		dir   string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init [kind]...",
		Short: "Write starter config, rules and manifest files",
		Long: fmt.Sprintf(`Write starter files for a manifestd deployment into --dir.
Kinds: %s. With no kind every starter file is written.`, strings.Join(config.Kinds(), ", ")),
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := args
			if len(kinds) == 0 {
				kinds = config.Kinds()
			}
			for _, kind := range kinds {
				path := filepath.Join(dir, starterName(kind))
				if err := config.WriteTemplate(path, kind, force); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "output directory")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	return cmd
}

func starterName(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case config.KindConfig:
		return "manifestd.toml"
	case config.KindRules:
		return "rules.toml"
	case config.KindManifest:
		return "manifest.xml"
	default:
		return kind
	}
}
