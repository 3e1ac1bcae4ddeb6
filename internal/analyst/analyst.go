// Package analyst produces an AI-written remediation summary for a finished
// scan.
package analyst

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"vulnhawk/pkg/scan"
)

const maxTokens = 2048

const systemPrompt = `You are an application security analyst. You receive the ` +
	`aggregated findings of a vulnerability scan and write a short remediation ` +
	`summary: the overall risk posture, the findings to fix first, and concrete ` +
	`next steps. Be specific and avoid boilerplate.`

// Client wraps the OpenAI chat API for scan summaries.
type Client struct {
	*openai.Client
	Model string
}

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

// Summarize asks the model for a remediation summary of the scan result.
func (c *Client) Summarize(ctx context.Context, result *scan.Result) (string, error) {
	model := c.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(result)},
		},
	}
	// Reasoning models reject MaxTokens in favor of MaxCompletionTokens.
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// buildPrompt renders the scan into a compact plain-text digest. Only
// finding metadata is sent, never raw tool output.
func buildPrompt(result *scan.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Target: %s\n", result.Target)
	fmt.Fprintf(&b, "Findings: %d total (critical %d, high %d, medium %d, low %d, info %d)\n\n",
		result.Summary.Total, result.Summary.Critical, result.Summary.High,
		result.Summary.Medium, result.Summary.Low, result.Summary.Info)

	for i, v := range result.Vulnerabilities {
		if i >= 50 {
			fmt.Fprintf(&b, "... and %d more findings\n", len(result.Vulnerabilities)-i)
			break
		}
		fmt.Fprintf(&b, "- [%s] %s (tool: %s", v.Severity, v.Title, v.Tool)
		if v.Category != "" {
			fmt.Fprintf(&b, ", category: %s", v.Category)
		}
		if v.CWE != "" {
			fmt.Fprintf(&b, ", %s", v.CWE)
		}
		b.WriteString(")\n")
	}
	return b.String()
}
