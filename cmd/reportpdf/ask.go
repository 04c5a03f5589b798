package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Skufu/symptomdesk/internal/assistant"
)

func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Ask the symptom assistant and render its answer to PDF",
		Long: `ask sends a symptom description to Gemini and renders the answer.
GEMINI_API_KEY must be set in the environment or in a .env file.`,
		Example: `  reportpdf ask --symptoms "fever, sore throat" -o report.pdf`,
		Args:    cobra.NoArgs,
		RunE:    runAsk,
	}
	cmd.Flags().StringP("symptoms", "s", "", "symptom description")
	cmd.Flags().String("model", assistant.DefaultModel, "Gemini model name")
	cmd.Flags().Duration("timeout", 60*time.Second, "time limit for the model call")
	_ = cmd.MarkFlagRequired("symptoms")
	return cmd
}

func runAsk(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	opts, err := layoutOptions(cmd)
	if err != nil {
		return err
	}
	symptoms, _ := cmd.Flags().GetString("symptoms")
	model, _ := cmd.Flags().GetString("model")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	gen, err := assistant.NewGemini(ctx, os.Getenv("GEMINI_API_KEY"), model)
	if err != nil {
		return err
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	text, err := assistant.New(gen, logger).Analyze(ctx, symptoms)
	if err != nil {
		return fmt.Errorf("%s: %w", assistant.FallbackMessage, err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), text)
	return writeReport(cmd, text, opts)
}
