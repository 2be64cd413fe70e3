package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/maglevlabs/mast/pkg/report"
)

var (
	reportOut        string
	reportRender     bool
	reportMaxActions int
)

var reportCmd = &cobra.Command{
	Use:   "report [script.json]",
	Short: "Generate a Markdown report of a script",
	Long: `Generate a Markdown report: metadata, validation findings, per-step
action tables, pool analysis (shared and orphaned actions), timing and a
review checklist. Plain Markdown by default; --render prints it styled
for the terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "Write the report to a file instead of stdout")
	reportCmd.Flags().BoolVar(&reportRender, "render", false, "Render the Markdown for the terminal")
	reportCmd.Flags().IntVar(&reportMaxActions, "max-actions", 0, "Cap the action rows per step table (0 = no cap)")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	s, err := loadStep(args[0])
	if err != nil {
		return err
	}

	md, err := report.Generate(s, report.Options{
		Source:            args[0],
		MaxActionsPerStep: reportMaxActions,
	})
	if err != nil {
		return err
	}

	if reportOut != "" {
		if err := os.WriteFile(reportOut, []byte(md), 0644); err != nil {
			return err
		}
		fmt.Printf("✓ Wrote report to %s\n", reportOut)
		return nil
	}
	if reportRender {
		fmt.Println(report.Render(md))
		return nil
	}
	fmt.Println(md)
	return nil
}
