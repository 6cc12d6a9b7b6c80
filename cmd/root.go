// Package cmd wires the clabedit command line.
package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var version = "0.3.0"

var (
	subtle = color.New(color.FgHiBlack)
	good   = color.New(color.FgGreen)
	warn   = color.New(color.FgYellow)
	bad    = color.New(color.FgRed)
)

var rootCmd = &cobra.Command{
	Use:   "clabedit",
	Short: "clabedit — interactive containerlab topology editor",
	Long: "clabedit edits containerlab topology files as a graph: nodes, links,\n" +
		"groups and annotations, with autosave back to the original YAML.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("clabedit {{ .Version }}\n")
	rootCmd.AddCommand(
		editCmd(),
		showCmd(),
	)
}

// Execute runs the root command. Errors are printed here so main stays a
// one-liner.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		bad.Fprintf(rootCmd.ErrOrStderr(), "clabedit: %v\n", err)
	}
	return err
}

func labArg(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected exactly one topology file")
	}
	return args[0], nil
}
