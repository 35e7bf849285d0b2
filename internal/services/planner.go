package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"studygen/internal/llmjson"
	"studygen/internal/models"
)

// ChatModel is the slice of the model provider the pipeline services need.
// The concrete implementation lives in internal/llm; tests substitute
// scripted stubs.
type ChatModel interface {
	Complete(ctx context.Context, system, user string) (string, error)
	CompleteWithImage(ctx context.Context, system, user, imageURL string) (string, error)
}

// planAttempts bounds the outer retry around empty JSON extraction. This
// is independent of the provider-level retry for transient errors.
const planAttempts = 2

// Planner expands one topic into an ordered list of search queries with
// mixed content types.
type Planner struct {
	model ChatModel
}

func NewPlanner(model ChatModel) *Planner {
	return &Planner{model: model}
}

// Plan asks the model for numQueries queries in a pedagogical progression.
// It retries once on empty extraction and returns an empty list when all
// attempts fail; the caller treats that as "no content for this topic".
func (p *Planner) Plan(ctx context.Context, topic string, numQueries int) []models.Query {
	user := fmt.Sprintf(plannerUserPromptFmt, topic, numQueries)

	for attempt := 1; attempt <= planAttempts; attempt++ {
		response, err := p.model.Complete(ctx, plannerSystemPrompt, user)
		if err != nil {
			slog.Error("query planning call failed", "topic", topic, "attempt", attempt, "error", err)
			continue
		}

		var parsed struct {
			Queries []models.Query `json:"queries"`
		}
		if !llmjson.Unmarshal(response, "queries", &parsed) {
			slog.Warn("no queries object in planner response", "topic", topic, "attempt", attempt)
			continue
		}

		queries := validateQueries(parsed.Queries)
		if len(queries) > 0 {
			return queries
		}
		slog.Warn("planner produced zero usable queries", "topic", topic, "attempt", attempt)
	}

	return nil
}

// validateQueries drops blank queries and coerces unknown content types to
// text, since downstream dispatch is type-driven.
func validateQueries(queries []models.Query) []models.Query {
	out := make([]models.Query, 0, len(queries))
	for _, q := range queries {
		q.Query = strings.TrimSpace(q.Query)
		if q.Query == "" {
			continue
		}
		if q.Type != models.ContentText && q.Type != models.ContentImage {
			q.Type = models.ContentText
		}
		out = append(out, q)
	}
	return out
}
