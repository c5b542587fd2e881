package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/lexcodex/cppsynth/cmd/internal/cliutils"
	"github.com/lexcodex/cppsynth/framework/document"
)

// Version is set at build time with -ldflags.
var Version = "(dev) v0.0.0"

var (
	flagWorkspace string
	flagConfig    string
	flagAnalyzer  string
	flagVerbose   int
	flagLogfile   string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cppsynth",
		Short:         "Generate C++ definitions, declarations and accessors",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var path *string
			if flagLogfile != "" {
				path = &flagLogfile
			}
			commonlog.Configure(flagVerbose, path)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&flagWorkspace, "workspace", envOrDefault("CPPSYNTH_WORKSPACE", "."), "Workspace root")
	flags.StringVar(&flagConfig, "config", "", "Config file (default <workspace>/.cppsynth/config.yaml)")
	flags.StringVar(&flagAnalyzer, "analyzer", "", "Analyzer override (clangd or treesitter)")
	flags.CountVarP(&flagVerbose, "verbose", "v", "Increase log verbosity")
	flags.StringVar(&flagLogfile, "logfile", "", "Write logs to a file instead of stderr")

	root.AddCommand(
		newSymbolsCmd(),
		newDefinitionCmd(),
		newDeclarationCmd(),
		newGetterCmd(),
		newSetterCmd(),
		newAccessorsCmd(),
		newMaskCmd(),
		newConfigCmd(),
		newLSPCmd(),
		newServeCmd(),
	)
	return root
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func openEnv(ctx context.Context) (*cliutils.Env, error) {
	return cliutils.Open(ctx, cliutils.Options{Root: flagWorkspace, ConfigFile: flagConfig, Analyzer: flagAnalyzer})
}

// fileURI resolves a command line path against the working directory.
func fileURI(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		return "", err
	}
	return document.URIFromPath(abs), nil
}
