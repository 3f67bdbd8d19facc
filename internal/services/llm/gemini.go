package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

func convertMessagesToGemini(messages []Message) ([]*genai.Content, string, error) {
	turns, systemText, err := splitSystem(messages)
	if err != nil {
		return nil, "", err
	}

	contents := make([]*genai.Content, 0, len(turns))
	for _, msg := range turns {
		role := genai.RoleUser
		if msg.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
		})
	}
	return contents, systemText, nil
}

// generateWithGemini generates content using Gemini API
func (f *ProviderFactory) generateWithGemini(ctx context.Context, request *ContentRequest, model string) (*ContentResponse, error) {
	client, err := f.GetGeminiClient(ctx)
	if err != nil {
		return nil, err
	}

	if model == "" {
		model = f.geminiConfig.Model
	}

	contents, systemText, err := convertMessagesToGemini(request.Messages)
	if err != nil {
		return nil, fmt.Errorf("failed to convert messages: %w", err)
	}
	if request.SystemInstruction != "" {
		systemText = request.SystemInstruction
	}

	temp := request.Temperature
	if temp <= 0 {
		temp = f.geminiConfig.Temperature
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temp),
	}
	if request.MaxTokens > 0 {
		config.MaxOutputTokens = int32(request.MaxTokens)
	}
	if systemText != "" {
		config.SystemInstruction = genai.NewContentFromText(systemText, genai.RoleUser)
	}
	if request.JSONOutput {
		config.ResponseMIMEType = "application/json"
	}

	var resp *genai.GenerateContentResponse
	err = f.retry.Do(ctx, f.logger, "Gemini", func() error {
		var callErr error
		resp, callErr = client.Models.GenerateContent(ctx, model, contents, config)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}

	return &ContentResponse{
		Text:     text,
		Provider: ProviderGemini,
		Model:    model,
	}, nil
}
