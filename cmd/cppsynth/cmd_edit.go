package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.lsp.dev/protocol"

	"github.com/lexcodex/cppsynth/cmd/internal/cliutils"
	"github.com/lexcodex/cppsynth/framework/actions"
	"github.com/lexcodex/cppsynth/framework/document"
)

type editFunc func(s *actions.Session, ctx context.Context, uri string, pos protocol.Position) (*actions.EditSet, error)

func newDefinitionCmd() *cobra.Command {
	return newEditCmd("definition", "Add a definition for the function declared at a position", (*actions.Session).AddDefinition)
}

func newDeclarationCmd() *cobra.Command {
	return newEditCmd("declaration", "Declare the member function defined at a position in its class", (*actions.Session).AddDeclaration)
}

func newGetterCmd() *cobra.Command {
	return newEditCmd("getter", "Add a getter for the member variable at a position", (*actions.Session).AddGetter)
}

func newSetterCmd() *cobra.Command {
	return newEditCmd("setter", "Add a setter for the member variable at a position", (*actions.Session).AddSetter)
}

func newAccessorsCmd() *cobra.Command {
	return newEditCmd("accessors", "Add a getter and a setter for the member variable at a position", (*actions.Session).AddAccessors)
}

func newEditCmd(use, short string, run editFunc) *cobra.Command {
	var asJSON, write bool
	cmd := &cobra.Command{
		Use:   use + " <file> <line:col>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			uri, err := fileURI(args[0])
			if err != nil {
				return err
			}
			pos, err := cliutils.ParsePosition(args[1])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			env, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			set, err := run(env.Session, ctx, uri, pos)
			if err != nil {
				return err
			}
			if write {
				if err := env.Workspace.Apply(set); err != nil {
					return err
				}
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(set)
			}
			printEdits(cmd.OutOrStdout(), set, write)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the edits as JSON")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Apply the edits to the files")
	return cmd
}

var (
	colorPrimary = lipgloss.Color("39")
	colorDim     = lipgloss.Color("241")
	colorSuccess = lipgloss.Color("42")

	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	filePathStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	dimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	addStyle      = lipgloss.NewStyle().Foreground(colorSuccess)
)

func printEdits(w io.Writer, set *actions.EditSet, written bool) {
	fmt.Fprintln(w, headerStyle.Render(set.Description))
	for _, uri := range set.URIs() {
		path := document.PathFromURI(uri)
		for _, e := range set.For(uri) {
			fmt.Fprintf(w, "%s%s\n", filePathStyle.Render(path), dimStyle.Render(fmt.Sprintf(":%d:%d", e.Position.Line+1, e.Position.Character+1)))
			fmt.Fprint(w, addStyle.Render(e.Text))
			if len(e.Text) == 0 || e.Text[len(e.Text)-1] != '\n' {
				fmt.Fprintln(w)
			}
		}
	}
	if written {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("wrote %d file(s)", len(set.URIs()))))
	}
}
