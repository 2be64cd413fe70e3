package main

import (
	"github.com/spf13/cobra"

	"github.com/maglevlabs/mast/pkg/shell"
)

var shellPretty bool

var shellCmd = &cobra.Command{
	Use:   "shell [script.json]",
	Short: "Edit a script in an interactive session",
	Long: `Open an interactive editing session with completion, history and undo.
Type 'help' inside the session for the command list. Changes stay in
memory until 'save'.`,
	Args: cobra.ExactArgs(1),
	RunE: runShell,
}

func init() {
	shellCmd.Flags().BoolVar(&shellPretty, "pretty", false, "Save indented JSON instead of canonical")

	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	s, err := loadStep(args[0])
	if err != nil {
		return err
	}

	sh, err := shell.New(s, args[0], shell.Options{
		Pretty:      shellPretty || workspace.PrettySave,
		HistoryFile: workspace.HistoryFile,
	})
	if err != nil {
		return err
	}
	return sh.Run()
}
