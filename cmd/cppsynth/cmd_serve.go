package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexcodex/cppsynth/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run a language server offering the operations as code actions over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()
			srv := server.NewLSPServer(env.Workspace, env.Session)
			return srv.Serve(ctx, stdio{in: os.Stdin, out: os.Stdout})
		},
	}
}

type stdio struct {
	in  io.ReadCloser
	out io.WriteCloser
}

func (s stdio) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s stdio) Write(p []byte) (int, error) { return s.out.Write(p) }
func (s stdio) Close() error {
	_ = s.in.Close()
	return s.out.Close()
}
