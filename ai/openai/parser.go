// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/poiesic/talentmatch/ai"
	"github.com/poiesic/talentmatch/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// FilterParser implements ai.FilterParser using OpenAI-compatible chat APIs.
type FilterParser struct {
	client      llms.Model
	callTimeout timeoutFunc
	logger      *slog.Logger
}

// parsedQuery mirrors the JSON contract with the reasoning service. Fields
// are declared `any` because models emit numbers as strings and strings as
// arrays often enough that strict types would reject usable output.
type parsedQuery struct {
	Skills        any `json:"skills"`
	Context       any `json:"context"`
	ExperienceMin any `json:"experience_min"`
	ExperienceMax any `json:"experience_max"`
	Deployment    any `json:"deployment"`
	Location      any `json:"location"`
	Department    any `json:"department"`
	Designation   any `json:"designation"`
	Project       any `json:"project"`
	EmployeeName  any `json:"employee_name"`
}

// newFilterParser is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newFilterParser(config *ai.Config) (*FilterParser, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.ReasonerHost),
		openai.WithToken("none"),
		openai.WithModel(config.ReasonerModel),
	)
	if err != nil {
		return nil, err
	}

	return &FilterParser{
		client:      client,
		callTimeout: timeoutFor(config),
		logger:      slog.Default().With("component", "openai-parser"),
	}, nil
}

// NewFilterParser creates a new filter parser using the provided configuration.
//
// Returns ai.FilterParser interface to enforce abstraction.
func NewFilterParser(config *ai.Config) (ai.FilterParser, error) {
	return newFilterParser(config)
}

// ParseQuery extracts structured filters from raw query text using the
// reasoning model in JSON mode. Output is not validated here beyond JSON
// shape; the retrieval engine owns vocabulary checks.
func (p *FilterParser) ParseQuery(ctx context.Context, query string) (*core.ParsedFilters, error) {
	ctx, cancel := p.callTimeout(ctx)
	defer cancel()

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(buildParserPrompt())},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(query)},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result parsedQuery
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := p.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			p.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			p.logger.Debug("no choices returned from model")
			return core.NewParsedFilters(), nil
		}

		responseText := stripFences(response.Choices[0].Content)
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			p.logger.Warn("error parsing filter response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		p.logger.Error("failed to parse filter response after retries", "err", lastErr)
		return nil, lastErr
	}

	filters := core.NewParsedFilters()
	filters.Skills = coerceStrings(result.Skills)
	filters.Context = coerceString(result.Context)
	filters.ExperienceMin = coerceFloat(result.ExperienceMin, core.ExperienceUnset)
	filters.ExperienceMax = coerceFloat(result.ExperienceMax, core.ExperienceUnset)
	filters.Deployment = coerceString(result.Deployment)
	filters.Location = coerceString(result.Location)
	filters.Department = coerceString(result.Department)
	filters.Designation = coerceString(result.Designation)
	filters.Project = coerceString(result.Project)
	filters.EmployeeName = coerceString(result.EmployeeName)
	filters.Normalize()

	p.logger.Debug("parsed query filters", "skills", len(filters.Skills), "strict", filters.Strict())
	return filters, nil
}

// stripFences removes markdown code fences around a JSON payload.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		if strings.EqualFold(t, "null") || strings.EqualFold(t, "none") {
			return ""
		}
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func coerceStrings(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := coerceString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if t == "" {
			return nil
		}
		parts := strings.Split(t, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func coerceFloat(v any, fallback float64) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f
		}
	}
	return fallback
}
