package review

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/CdubVentures/spec-harvester-sub006/internal/model"
)

// GenAIModel reviews a slot with a Gemini model, the same client
// construction the corpus uses for its own Gemini calls.
type GenAIModel struct {
	client *genai.Client
	model  string
}

// NewGenAIModel builds a GenAIModel. apiKey must be non-empty; model
// defaults to "gemini-2.5-flash" when empty, matching the fast/cheap tier a
// high-volume review lane should default to.
func NewGenAIModel(ctx context.Context, apiKey, modelName string) (*GenAIModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("review: GenAI API key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("review: create GenAI client: %w", err)
	}
	return &GenAIModel{client: client, model: modelName}, nil
}

type genaiVerdict struct {
	Decision   string  `json:"decision"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

// Review asks the configured model to judge req, parsing its JSON reply into
// a Verdict. A reply that doesn't decode, or names a decision other than
// "accept"/"confirm", is treated as an inconclusive pending verdict rather
// than an error, so a single malformed model reply doesn't fail the run.
func (g *GenAIModel) Review(ctx context.Context, req Request) (Verdict, Usage, error) {
	prompt := buildPrompt(req)
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return Verdict{}, Usage{}, fmt.Errorf("review: GenAI call failed: %w", err)
	}

	usage := Usage{Provider: "genai", Model: g.model}
	if result.UsageMetadata != nil {
		usage.Tokens = int(result.UsageMetadata.TotalTokenCount)
	}

	text := result.Text()
	var parsed genaiVerdict
	if err := json.Unmarshal([]byte(extractJSON(text)), &parsed); err != nil {
		return Verdict{Decision: model.StatusPending, Reasoning: "unparseable model reply"}, usage, nil
	}

	status := model.StatusPending
	switch strings.ToLower(strings.TrimSpace(parsed.Decision)) {
	case "accept", "accepted":
		status = model.StatusAccepted
	case "confirm", "confirmed":
		status = model.StatusConfirmed
	}

	return Verdict{Decision: status, Reasoning: parsed.Reasoning, Confidence: parsed.Confidence}, usage, nil
}

func buildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Category: %s\nField: %s\nProposed value: %s\n\nEvidence:\n", req.Category, req.FieldKey, req.Value)
	for _, e := range req.Evidence {
		fmt.Fprintf(&b, "- %s: %q\n", e.URL, e.Quote)
	}
	b.WriteString("\nRespond with JSON: {\"decision\": \"accept|confirm|reject\", \"reasoning\": \"...\", \"confidence\": 0.0-1.0}")
	return b.String()
}

// extractJSON trims a model reply down to its outermost {...} span, since
// chat models routinely wrap JSON in prose or code fences.
func extractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}
