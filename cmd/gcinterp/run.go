package main

import (
	"fmt"

	"github.com/mastercactapus/gcinterp/interpreter"
	"github.com/spf13/cobra"
)

var showProgress bool

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Interpret a file and print dispatch counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t := newTally()
		in := t.interpreter(interpreterLogger())
		if showProgress {
			stderr := cmd.ErrOrStderr()
			in.OnProgress(func(p interpreter.Progress) {
				fmt.Fprintf(stderr, "\r%d/%d", p.Current+1, p.Total)
				if p.Current+1 == p.Total {
					fmt.Fprintln(stderr)
				}
			})
		}

		lines, err := in.LoadFromFileSync(args[0], nil)
		if err != nil {
			return err
		}
		return t.print(cmd.OutOrStdout(), len(lines))
	},
}

func init() {
	runCmd.Flags().BoolVar(&showProgress, "progress", false, "Report progress on stderr.")
	rootCmd.AddCommand(runCmd)
}
