package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lexcodex/cppsynth/tools"
)

func newLSPCmd() *cobra.Command {
	var file string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Probe the configured analyzer",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			env, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			out := cmd.OutOrStdout()
			if provider, ok := env.Analyzer.(tools.ProcessMetadataProvider); ok {
				md := provider.ProcessMetadata()
				fmt.Fprintf(out, "%s pid=%d root=%s started=%s\n", md.Command, md.PID, md.Root, md.Started.Format(time.RFC3339))
			} else {
				fmt.Fprintf(out, "in-process analyzer %T\n", env.Analyzer)
			}
			if file == "" {
				return nil
			}
			uri, err := fileURI(file)
			if err != nil {
				return err
			}
			tree, err := env.Workspace.Symbols(ctx, uri)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d symbols in %s\n", tree.Len(), file)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Optional file to request symbols for")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "Probe timeout")
	return cmd
}
