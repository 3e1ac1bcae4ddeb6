package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vulnhawk/pkg/report"
	"vulnhawk/pkg/scan"
)

// NewReportCommand creates the report command. It re-renders a finished
// scan from its result.json without re-running any tools.
func NewReportCommand() *cobra.Command {
	var (
		input     string
		formats   []string
		outputDir string
		toStdout  bool
	)

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Render reports from a finished scan",
		Long:  `Render a finished scan's result.json into one or more report formats`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			data, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("failed to read scan result: %w", err)
			}
			var result scan.Result
			if err := json.Unmarshal(data, &result); err != nil {
				return fmt.Errorf("failed to decode scan result: %w", err)
			}

			renderer := report.NewRenderer()

			if toStdout {
				if len(formats) != 1 {
					return fmt.Errorf("--stdout requires exactly one --format")
				}
				out, err := renderer.Render(&result, report.Format(formats[0]))
				if err != nil {
					return err
				}
				fmt.Print(out)
				return nil
			}

			if outputDir == "" {
				outputDir = "."
			}
			if err := os.MkdirAll(outputDir, 0755); err != nil {
				return err
			}

			reportFormats := make([]report.Format, 0, len(formats))
			for _, f := range formats {
				reportFormats = append(reportFormats, report.Format(f))
			}
			paths, err := renderer.WriteReports(&result, outputDir, reportFormats)
			if err != nil {
				return err
			}
			for _, path := range paths {
				fmt.Printf("Report written: %s\n", path)
			}
			return nil
		},
	}

	reportCmd.Flags().StringVarP(&input, "input", "i", "", "Path to a scan's result.json (required)")
	reportCmd.Flags().StringSliceVarP(&formats, "format", "f", []string{"text"}, "Report formats (json,html,csv,xml,markdown,text)")
	reportCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory to write reports to (default current directory)")
	reportCmd.Flags().BoolVar(&toStdout, "stdout", false, "Print a single report to stdout instead of writing files")

	reportCmd.MarkFlagRequired("input")

	return reportCmd
}
