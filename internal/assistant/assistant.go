// Package assistant asks a hosted language model for possible conditions
// and advice for a free-text symptom description.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// FallbackMessage is what users see when no analysis could be produced.
const FallbackMessage = "Sorry, there was an error generating the response."

var (
	// ErrEmptyResponse is returned when the model answers with no text.
	ErrEmptyResponse = errors.New("model returned an empty response")

	// ErrNoSymptoms is returned for a blank symptom description.
	ErrNoSymptoms = errors.New("symptoms are required")

	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.New("GEMINI_API_KEY is required")
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Assistant turns symptom descriptions into a Conditions/Advice report.
type Assistant struct {
	gen    Generator
	logger *zap.Logger
}

// New wraps a Generator.
func New(gen Generator, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{gen: gen, logger: logger}
}

// Analyze returns the model's report for symptoms, trimmed of surrounding
// whitespace.
func (a *Assistant) Analyze(ctx context.Context, symptoms string) (string, error) {
	symptoms = strings.TrimSpace(symptoms)
	if symptoms == "" {
		return "", ErrNoSymptoms
	}

	text, err := a.gen.Generate(ctx, BuildPrompt(symptoms))
	if err != nil {
		a.logger.Error("symptom analysis failed", zap.Error(err))
		return "", fmt.Errorf("generate analysis: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		a.logger.Error("symptom analysis returned no text")
		return "", ErrEmptyResponse
	}

	a.logger.Info("symptom analysis complete",
		zap.Int("symptoms_len", len(symptoms)),
		zap.Int("report_len", len(text)),
	)
	return text, nil
}

// BuildPrompt asks for the section layout the PDF report recognizes.
func BuildPrompt(symptoms string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Given the following symptoms: %s, list possible conditions and advice.\n", symptoms)
	b.WriteString("Format the response as follows:\n")
	b.WriteString("Conditions:\n- condition 1\n- condition 2\n...\n")
	b.WriteString("Advice:\n1. Step 1\n2. Step 2\n...\n")
	return b.String()
}

// Gemini is a Generator backed by the Gemini API.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGemini creates a Gemini API client for model.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model, temperature: 0.4}, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	})
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Text(), nil
}
