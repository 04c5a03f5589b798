// Package main provides reportpdf, a command line tool that renders
// symptom reports to PDF without running the server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reportpdf",
		Short: "Render symptom reports as paginated PDF documents",
		Long: `reportpdf turns a plain-text symptom report into a PDF.

Lines starting with "Conditions:" or "Advice:" become section headers,
every other line is indented body text. Use --config to point at a YAML
layout file that changes the page size, margin, title or markers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "YAML layout file")
	cmd.PersistentFlags().StringP("output", "o", "healthcare_report.pdf", "output PDF path, - for stdout")
	cmd.PersistentFlags().Bool("replace-unsupported", false, "replace characters the PDF fonts cannot show with '?'")

	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newAskCmd())
	return cmd
}
