package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Skufu/symptomdesk/internal/report"
)

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a report text file to PDF",
		Example: `  reportpdf render -i report.txt -o healthcare_report.pdf
  cat report.txt | reportpdf render -i - -o -`,
		Args: cobra.NoArgs,
		RunE: runRender,
	}
	cmd.Flags().StringP("input", "i", "-", "report text file, - for stdin")
	cmd.Flags().String("title", "", "override the document title")
	return cmd
}

func runRender(cmd *cobra.Command, _ []string) error {
	opts, err := layoutOptions(cmd)
	if err != nil {
		return err
	}
	if title, _ := cmd.Flags().GetString("title"); title != "" {
		opts.Title = title
	}

	input, _ := cmd.Flags().GetString("input")
	text, err := readInput(cmd.InOrStdin(), input)
	if err != nil {
		return err
	}
	return writeReport(cmd, text, opts)
}

// layoutOptions resolves the persistent layout flags.
func layoutOptions(cmd *cobra.Command) (report.Options, error) {
	opts := report.DefaultOptions()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := report.LoadOptions(path)
		if err != nil {
			return report.Options{}, fmt.Errorf("load layout %s: %w", path, err)
		}
		opts = loaded
	}
	if replace, _ := cmd.Flags().GetBool("replace-unsupported"); replace {
		opts.ReplaceUnsupported = true
	}
	return opts, nil
}

func readInput(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // user-provided input path is intentional
	if err != nil {
		return "", fmt.Errorf("read report: %w", err)
	}
	return string(data), nil
}

func writeReport(cmd *cobra.Command, text string, opts report.Options) error {
	data, err := report.Render(text, opts)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", output, len(data))
	return nil
}
