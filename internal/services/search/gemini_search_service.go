package search

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketlens/internal/common"
	"github.com/ternarybob/marketlens/internal/models"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// generateFunc issues one Gemini request
type generateFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// ClientProvider supplies a lazily created Gemini client
type ClientProvider interface {
	GetGeminiClient(ctx context.Context) (*genai.Client, error)
}

// GeminiSearchService performs web research using Gemini with GoogleSearch grounding.
// Calls are paced by a rate limiter to stay inside the free-tier RPM quota.
type GeminiSearchService struct {
	generate   generateFunc
	model      string
	maxResults int
	limiter    *rate.Limiter
	logger     arbor.ILogger
}

// NewGeminiSearchService creates a grounded search service backed by clients
func NewGeminiSearchService(clients ClientProvider, config *common.SearchConfig, logger arbor.ILogger) *GeminiSearchService {
	generate := func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		client, err := clients.GetGeminiClient(ctx)
		if err != nil {
			return nil, err
		}
		return client.Models.GenerateContent(ctx, model, contents, cfg)
	}
	return newGeminiSearchService(generate, config, logger)
}

func newGeminiSearchService(generate generateFunc, config *common.SearchConfig, logger arbor.ILogger) *GeminiSearchService {
	interval := common.ParseDuration(config.RateLimit, 0)
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	return &GeminiSearchService{
		generate:   generate,
		model:      config.Model,
		maxResults: config.MaxResults,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
	}
}

// Search executes query with GoogleSearch grounding and returns the cited sources
func (s *GeminiSearchService) Search(ctx context.Context, query string) (*models.SearchResponse, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("search rate limiter: %w", err)
	}

	currentDate := time.Now().Format("January 2, 2006")
	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		SystemInstruction: genai.NewContentFromText(fmt.Sprintf(
			"You are a market research assistant. Today's date is %s. Search the web and summarize the findings with specific facts and figures. Answer in Brazilian Portuguese.",
			currentDate), genai.RoleUser),
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{genai.NewPartFromText(query)},
	}}

	start := time.Now()
	resp, err := s.generate(ctx, s.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("grounded search failed: %w", err)
	}

	out := toSearchResponse(query, resp, s.maxResults)

	s.logger.Debug().
		Str("query", query).
		Int("sources", len(out.Results)).
		Dur("elapsed", time.Since(start)).
		Msg("Grounded search completed")

	return out, nil
}

// toSearchResponse extracts the grounding sources of resp, deduplicated by URL
func toSearchResponse(query string, resp *genai.GenerateContentResponse, maxResults int) *models.SearchResponse {
	out := &models.SearchResponse{
		Query:   query,
		Results: []map[string]interface{}{},
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return out
	}

	out.Summary = resp.Text()

	gm := resp.Candidates[0].GroundingMetadata
	if gm == nil {
		return out
	}

	seen := make(map[string]bool)
	for _, chunk := range gm.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" || seen[chunk.Web.URI] {
			continue
		}
		seen[chunk.Web.URI] = true
		out.Results = append(out.Results, map[string]interface{}{
			"title":  chunk.Web.Title,
			"url":    chunk.Web.URI,
			"source": "google_search",
		})
		if maxResults > 0 && len(out.Results) >= maxResults {
			break
		}
	}
	return out
}
