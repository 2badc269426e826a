package main

import (
	"github.com/danmuck/manifestd/internal/tree"
	"github.com/spf13/cobra"
)

func newGetCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <nodepath>...",
		Short: "Resolve nodepaths against a running manifestd",
		Long: `Resolve one or more nodepaths over a single session and print the
matching values in document order, one per line.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueries(cmd, opts, args)
		},
	}
}

func newKeyCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "key <key>...",
		Short: "Look up keys in the key_value_pairs section",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := make([]string, len(args))
			for i, k := range args {
				paths[i] = tree.KeyPath(k)
			}
			return runQueries(cmd, opts, paths)
		},
	}
}

func runQueries(cmd *cobra.Command, opts *rootOptions, nodepaths []string) error {
	ctx := cmd.Context()
	client, err := opts.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	results := make([]result, 0, len(nodepaths))
	for _, p := range nodepaths {
		values, err := client.Query(ctx, p)
		if err != nil {
			return err
		}
		results = append(results, result{NodePath: p, Values: values})
	}
	return writeResults(cmd.OutOrStdout(), opts.Format, results)
}
