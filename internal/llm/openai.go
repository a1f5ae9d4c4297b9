package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/avolkhin/fincascade/internal/evidence"
)

// OpenAIProvider implements the Provider interface for OpenAI-compatible
// chat-completion endpoints, including local Ollama servers via BaseURL.
type OpenAIProvider struct {
	client  *openai.Client
	config  Config
	limiter *rate.Limiter
}

// NewOpenAIProvider creates a new OpenAI-compatible provider.
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" && config.BaseURL == "" {
		return nil, fmt.Errorf("oracle API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 4
	}

	return &OpenAIProvider{
		client:  openai.NewClientWithConfig(clientConfig),
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}, nil
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured.
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "oracle availability check failed: %v\n", err)
		return false
	}
	return true
}

// Extract asks the model for candidate episodes grounded in the document.
func (p *OpenAIProvider) Extract(ctx context.Context, doc evidence.Document, hints ContextHints) ([]CandidateEpisode, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("oracle rate limit: %w", err)
	}

	modelName := p.config.Model
	if modelName == "" {
		modelName = openai.GPT4oMini
	}

	maxTokens := p.config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4000
	}

	timeout := p.config.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: extractionSystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildExtractionPrompt(doc, hints),
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.1, // Extraction is transcription, not generation
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, req)
	if err != nil {
		return nil, fmt.Errorf("oracle API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from oracle")
	}

	return parseCandidates(resp.Choices[0].Message.Content)
}

const extractionSystemPrompt = `You are a financial forensic analyst reconstructing an event from source text.
Output a single raw JSON object: {"episodes": [...]} matching the schema in the user message.

Strict constraints:
- Every "value" must be strictly derived from the Content; every "evidence" entry must be an EXACT verbatim substring of the Content (no rewriting, no paraphrase).
- Do NOT fabricate beyond the Content; set missing information to "unknown" with concise reasons.
- Each episode must be concrete (timestamp, actor, action), causal, and capital-market relevant.
- Confidence scores are in [0.0, 1.0].
- No preamble, no code fences, no text outside the JSON object.`

// buildExtractionPrompt constructs the user prompt with content, focus hints
// and the candidate schema.
func buildExtractionPrompt(doc evidence.Document, hints ContextHints) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Event: %s\n", hints.EventName)
	if len(hints.Scenarios) > 0 {
		names := make([]string, 0, len(hints.Scenarios))
		for _, s := range hints.Scenarios {
			names = append(names, string(s))
		}
		fmt.Fprintf(&b, "Plausible archetypes (hints only, never filters): %s\n", strings.Join(names, ", "))
	}
	if len(hints.StageNames) > 0 {
		fmt.Fprintf(&b, "Hypothesized stages: %s\n", strings.Join(hints.StageNames, ", "))
	}
	if len(hints.KnownParticipants) > 0 {
		b.WriteString("Known participants (reuse these names verbatim when the text refers to them):\n")
		for _, p := range hints.KnownParticipants {
			fmt.Fprintf(&b, "- %s (%s)\n", p.Name.Value, p.Role)
		}
	}

	b.WriteString("\nSchema for each episode:\n")
	b.WriteString(`{"name": {"value": "...", "evidence": ["verbatim snippet"], "reasons": ["..."], "confidence": 0.9},
 "type": "one of the episode taxonomy labels, or a short free label",
 "timestamp": {"value": "ISO-8601 or unknown", "evidence": [...], "reasons": [...]},
 "descriptions": [...grounded values...],
 "participants": [{"name": {...}, "participant_type": {...}, "role": "functional role label", "actions": [...]}],
 "participant_relations": [...], "transactions": [...]}`)

	b.WriteString("\n\n=== BEGIN Content ===\n")
	b.WriteString(doc.Content)
	b.WriteString("\n=== END Content ===\n")

	return b.String()
}

// parseCandidates decodes the oracle's JSON payload.
func parseCandidates(raw string) ([]CandidateEpisode, error) {
	raw = strings.TrimSpace(raw)
	// Some models still wrap JSON in fences despite instructions.
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var payload struct {
		Episodes []CandidateEpisode `json:"episodes"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("parse oracle response: %w", err)
	}
	return payload.Episodes, nil
}

var _ Provider = (*OpenAIProvider)(nil)
