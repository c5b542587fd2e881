package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.lsp.dev/protocol"

	"github.com/lexcodex/cppsynth/framework/semantic"
)

var (
	kindStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	nameStyle   = lipgloss.NewStyle().Bold(true)
	accessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Italic(true)
)

type symbolJSON struct {
	Name      string         `json:"name"`
	Qualified string         `json:"qualified"`
	Kind      string         `json:"kind"`
	Access    string         `json:"access,omitempty"`
	Range     protocol.Range `json:"range"`
	TrueRange protocol.Range `json:"trueRange"`
	Children  []symbolJSON   `json:"children,omitempty"`
}

func newSymbolsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "symbols <file>",
		Short: "List the refined symbols of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uri, err := fileURI(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			env, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			tree, err := env.Workspace.Symbols(ctx, uri)
			if err != nil {
				return err
			}
			src := semantic.NewSource(tree.Document())
			var roots []symbolJSON
			for _, sym := range tree.Roots() {
				roots = append(roots, describe(semantic.New(sym, src), nil))
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(roots)
			}
			printSymbols(cmd.OutOrStdout(), roots, 0)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print symbols as JSON")
	return cmd
}

func describe(sym, class *semantic.Symbol) symbolJSON {
	out := symbolJSON{
		Name:      sym.Name,
		Qualified: sym.QualifiedName(),
		Kind:      sym.Kind.String(),
		Range:     sym.Range,
		TrueRange: sym.TrueRange(),
	}
	if sym.Anonymous {
		out.Name = sym.RawName
	}
	if class != nil {
		out.Access = memberAccess(class, sym).String()
	}
	var next *semantic.Symbol
	if sym.Kind.IsClassType() {
		next = sym
	}
	for _, child := range sym.ChildSymbols() {
		out.Children = append(out.Children, describe(child, next))
	}
	return out
}

// memberAccess finds the access region holding member.
func memberAccess(class, member *semantic.Symbol) semantic.Access {
	start := member.TrueStart()
	for _, level := range []semantic.Access{semantic.Public, semantic.Protected, semantic.Private} {
		for _, span := range class.RangesOfAccess(level) {
			if start >= span.Start && start < span.End {
				return level
			}
		}
	}
	return class.DefaultAccess()
}

func printSymbols(w io.Writer, syms []symbolJSON, depth int) {
	for _, s := range syms {
		line := strings.Repeat("  ", depth) + kindStyle.Render(fmt.Sprintf("%-10s", s.Kind)) + " " + nameStyle.Render(s.Name)
		if s.Access != "" {
			line += " " + accessStyle.Render(s.Access)
		}
		line += dimStyle.Render(fmt.Sprintf("  %d:%d-%d:%d", s.TrueRange.Start.Line+1, s.TrueRange.Start.Character+1, s.TrueRange.End.Line+1, s.TrueRange.End.Character+1))
		fmt.Fprintln(w, line)
		printSymbols(w, s.Children, depth+1)
	}
}
