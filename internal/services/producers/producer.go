package producers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketlens/internal/models"
	"github.com/ternarybob/marketlens/internal/services/llm"
)

// ErrInvalidResponse is returned when the model output is not a JSON object
var ErrInvalidResponse = errors.New("producer response is not a JSON object")

// Definition describes one analysis producer: its name, the role given to the model,
// and the top-level keys the model must return.
type Definition struct {
	Name       string
	Role       string
	OutputKeys []string
}

// Options are the generation settings shared by all producers
type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// LLMProducer implements interfaces.Producer on top of an LLM generator.
//
// Input: the producer context as a JSON object (request fields, research_data,
// or the core analysis result for enrichments).
//
// Output: a JSON object with the keys named in Definition.OutputKeys. Extra keys are
// kept as returned.
type LLMProducer struct {
	def       Definition
	generator llm.Generator
	options   Options
	logger    arbor.ILogger
}

// NewLLMProducer creates a producer for def
func NewLLMProducer(def Definition, generator llm.Generator, options Options, logger arbor.ILogger) *LLMProducer {
	return &LLMProducer{
		def:       def,
		generator: generator,
		options:   options,
		logger:    logger,
	}
}

// Name returns the producer name
func (p *LLMProducer) Name() string {
	return p.def.Name
}

// Produce sends input to the model and parses its JSON answer
func (p *LLMProducer) Produce(ctx context.Context, input models.PartialResult) (models.PartialResult, error) {
	payload, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s input: %w", p.def.Name, err)
	}

	resp, err := p.generator.GenerateContent(ctx, &llm.ContentRequest{
		Messages:          []llm.Message{{Role: "user", Content: buildPrompt(p.def, string(payload))}},
		Model:             p.options.Model,
		Temperature:       p.options.Temperature,
		MaxTokens:         p.options.MaxTokens,
		SystemInstruction: p.def.Role,
		JSONOutput:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s generation failed: %w", p.def.Name, err)
	}

	result, err := parseResponse(resp.Text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.def.Name, err)
	}

	p.logger.Debug().
		Str("producer", p.def.Name).
		Str("model", resp.Model).
		Int("keys", len(result)).
		Msg("Producer completed")

	return result, nil
}

func buildPrompt(def Definition, payload string) string {
	var b strings.Builder
	b.WriteString("Analyze the market context below and answer in Brazilian Portuguese.\n\n")
	b.WriteString("Context (JSON):\n")
	b.WriteString(payload)
	b.WriteString("\n\nRespond with a single JSON object and nothing else. Required top-level keys:\n")
	for _, key := range def.OutputKeys {
		b.WriteString("- ")
		b.WriteString(key)
		if hint, ok := keyHints[key]; ok {
			b.WriteString(": ")
			b.WriteString(hint)
		}
		b.WriteString("\n")
	}
	b.WriteString("Use arrays for lists, objects for structured data and strings for prose. Never leave a key empty.\n")
	return b.String()
}

var fencePattern = regexp.MustCompile("(?s)^\\s*```(?:json|JSON)?\\s*\\n?(.*?)\\n?\\s*```\\s*$")

// cleanMarkdownFences removes markdown code fences from response
func cleanMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	if matches := fencePattern.FindStringSubmatch(s); len(matches) > 1 {
		s = matches[1]
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func parseResponse(text string) (models.PartialResult, error) {
	cleaned := cleanMarkdownFences(text)
	if cleaned == "" {
		return nil, llm.ErrEmptyResponse
	}

	var result map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if result == nil {
		return nil, ErrInvalidResponse
	}
	return models.PartialResult(result), nil
}
