package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Gemini is the concrete Model implementation backed by the Gemini API.
// Credentials come from the environment (GEMINI_API_KEY), same as the
// underlying SDK default.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini-backed model client.
func NewGemini(ctx context.Context, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGemini: create genai client: %w", err)
	}

	return &Gemini{client: client, model: model}, nil
}

// Classify implements the Model interface.
func (g *Gemini) Classify(ctx context.Context, body string) (*Classification, error) {
	var out Classification
	if err := g.generateJSON(ctx, buildClassifyPrompt(body), classificationSchema, &out); err != nil {
		return nil, fmt.Errorf("Classify: %w", err)
	}

	switch out.Intent {
	case IntentTransaction, IntentQuestion, IntentQueryBalance:
	default:
		return nil, fmt.Errorf("Classify: model returned unknown intent %q", out.Intent)
	}
	if out.Intent == IntentTransaction {
		switch out.TransactionDetail {
		case DetailExpense, DetailIncome, DetailTransfer:
		default:
			return nil, fmt.Errorf("Classify: model returned unknown transaction detail %q", out.TransactionDetail)
		}
	}

	return &out, nil
}

// ExtractTransaction implements the Model interface.
func (g *Gemini) ExtractTransaction(ctx context.Context, body string, accounts, categories []string) (*TransactionExtraction, error) {
	prompt := buildTransactionPrompt(body, accounts, categories)
	schema := transactionSchema(accounts, categories)

	var out TransactionExtraction
	if err := g.generateJSON(ctx, prompt, schema, &out); err != nil {
		return nil, fmt.Errorf("ExtractTransaction: %w", err)
	}
	if out.Amount == "" || out.SourceAccountName == "" {
		return nil, fmt.Errorf("ExtractTransaction: model output missing amount or source account")
	}

	return &out, nil
}

// ExtractBalanceQuery implements the Model interface.
func (g *Gemini) ExtractBalanceQuery(ctx context.Context, body string, accounts, categories []string) (*BalanceQuery, error) {
	var out BalanceQuery
	if err := g.generateJSON(ctx, buildBalancePrompt(body, accounts, categories), balanceQuerySchema, &out); err != nil {
		return nil, fmt.Errorf("ExtractBalanceQuery: %w", err)
	}

	switch out.QueryType {
	case QueryAccount, QueryBudget, QuerySummary:
	default:
		return nil, fmt.Errorf("ExtractBalanceQuery: model returned unknown query type %q", out.QueryType)
	}

	return &out, nil
}

// Answer implements the Model interface.
func (g *Gemini) Answer(ctx context.Context, body string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(buildAnswerPrompt(body)), nil)
	if err != nil {
		return "", fmt.Errorf("Answer: generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("Answer: empty response from model")
	}
	return text, nil
}

// generateJSON runs a schema-constrained generation and decodes the JSON
// response into out. A response that fails to decode against the schema
// is an internal error, not something recovered from.
func (g *Gemini) generateJSON(ctx context.Context, prompt string, schema *genai.Schema, out any) error {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return fmt.Errorf("generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return fmt.Errorf("empty response from model")
	}

	clean := cleanModelJSON(rawText)
	if err := json.Unmarshal([]byte(clean), out); err != nil {
		return fmt.Errorf("unmarshal model JSON: %w\nraw response: %s", err, rawText)
	}

	return nil
}

// cleanModelJSON strips Markdown fences and surrounding junk in case the
// model ignored the JSON-only instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			// Single-line weirdness; just return as-is.
			return s
		}
		s = strings.TrimSpace(s)
	}

	// Remove trailing ``` if present.
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Extra safety: if there's still junk around the JSON object,
	// keep only from the first '{' to the last '}'.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

// Ensure Gemini implements the Model interface.
var _ Model = (*Gemini)(nil)
