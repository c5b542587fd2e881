package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexcodex/cppsynth/framework/mask"
)

func newMaskCmd() *cobra.Command {
	var brackets, regions bool
	var filler string
	cmd := &cobra.Command{
		Use:   "mask <file>",
		Short: "Print a file with comments, literals and attributes blanked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			targets := mask.NonSource
			if brackets {
				targets |= mask.Brackets
			}
			text := string(data)
			if regions {
				for _, r := range mask.Regions(text, targets) {
					fmt.Fprintf(cmd.OutOrStdout(), "%d-%d %s\n", r.Start, r.End, dimStyle.Render(fmt.Sprintf("%q", text[r.Start:r.End])))
				}
				return nil
			}
			if len(filler) != 1 {
				return fmt.Errorf("filler must be a single byte, got %q", filler)
			}
			fmt.Fprint(cmd.OutOrStdout(), mask.MaskWith(text, targets, filler[0]))
			return nil
		},
	}
	cmd.Flags().BoolVar(&brackets, "brackets", false, "Also blank the contents of (), [], {} and <>")
	cmd.Flags().BoolVar(&regions, "regions", false, "List the masked byte ranges instead")
	cmd.Flags().StringVar(&filler, "filler", string(mask.Filler), "Replacement byte")
	return cmd
}
