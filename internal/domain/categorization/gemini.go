package categorization

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model name is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiClassifier asks a hosted Gemini model to rank candidate labels.
// The underlying genai client is safe for concurrent use.
type GeminiClassifier struct {
	client *genai.Client
	model  string
}

// NewGeminiClassifier creates the genai client. An empty apiKey lets the SDK
// read GOOGLE_API_KEY / GEMINI_API_KEY from the environment.
func NewGeminiClassifier(ctx context.Context, apiKey, model string) (*GeminiClassifier, error) {
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiClassifier{client: client, model: model}, nil
}

func (g *GeminiClassifier) Classify(ctx context.Context, texts []string, labels []string) ([][]LabelScore, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	labels, _ = allowedSet(labels)

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: buildClassificationPrompt(texts, labels)}},
		},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	raw := resp.Text()
	if raw == "" {
		return nil, errors.New("empty response from model")
	}
	return parseClassification(raw, len(texts))
}

func buildClassificationPrompt(texts, labels []string) string {
	var b strings.Builder
	b.WriteString("You categorize bank transaction descriptions.\n")
	b.WriteString("Allowed labels: ")
	b.WriteString(strings.Join(labels, ", "))
	b.WriteString("\n\nFor every numbered description return an object ")
	b.WriteString(`{"index": <number>, "labels": [{"label": <allowed label>, "confidence": <0..1>}]}`)
	b.WriteString(" with labels ranked from most to least likely.\n")
	b.WriteString("Return ONLY a raw JSON array. Do NOT use Markdown or code fences.\n\n")
	for i, t := range texts {
		fmt.Fprintf(&b, "%d. %s\n", i, t)
	}
	return b.String()
}

type classificationItem struct {
	Index  int          `json:"index"`
	Labels []LabelScore `json:"labels"`
}

// parseClassification maps the model's JSON onto n index-aligned rankings.
// Items with an out-of-range index are ignored.
func parseClassification(raw string, n int) ([][]LabelScore, error) {
	var items []classificationItem
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &items); err != nil {
		return nil, fmt.Errorf("failed to decode model response: %w", err)
	}
	out := make([][]LabelScore, n)
	for _, item := range items {
		if item.Index < 0 || item.Index >= n {
			continue
		}
		out[item.Index] = rankScores(item.Labels)
	}
	return out, nil
}

// cleanModelJSON strips Markdown fences and any text around the JSON array.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end > start {
			s = s[start : end+1]
		}
	}
	return strings.TrimSpace(s)
}
