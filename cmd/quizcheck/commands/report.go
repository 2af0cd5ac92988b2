package commands

import (
	"fmt"

	"github.com/moolen/quizcheck/internal/report"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Work with saved run reports",
}

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Render a report saved with 'run --report-out'",
	Long: `Render loads a JSON or YAML report and prints it as text, Markdown (rendered
for the terminal), JSON or YAML.

Examples:
  quizcheck report render results/run.json
  quizcheck report render results/run.yaml --format markdown --check`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

var (
	renderFormat string
	renderCheck  bool
)

func init() {
	renderCmd.Flags().StringVar(&renderFormat, "format", "text", "Output format: text, json, yaml or markdown")
	renderCmd.Flags().BoolVar(&renderCheck, "check", false, "Exit with status 1 when the report did not pass")
	reportCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(renderFormat)
	if err != nil {
		return err
	}
	rep, err := report.Load(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := report.Write(out, rep, format, renderOptions(out)); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	if renderCheck && !rep.Passed() {
		return errChecksFailed
	}
	return nil
}
