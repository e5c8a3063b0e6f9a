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
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/poiesic/talentmatch/ai"
	"github.com/poiesic/talentmatch/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Ranker implements ai.Ranker using OpenAI-compatible chat APIs. Each call
// submits one batch of compact profile lines and parses the strict
// per-candidate output format.
type Ranker struct {
	client      llms.Model
	callTimeout timeoutFunc
	logger      *slog.Logger
}

// rankedLinePattern matches one well-formed output line:
//
//	id | TIER n | score | [name=value,...] | justification
var rankedLinePattern = regexp.MustCompile(
	`^\s*(\d+)\s*\|\s*TIER\s*([1-4])\s*\|\s*([0-9]+(?:\.[0-9]+)?)\s*\|\s*\[([^\]]*)\]\s*\|\s*(.+?)\s*$`)

// newRanker is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newRanker(config *ai.Config) (*Ranker, error) {
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

	return &Ranker{
		client:      client,
		callTimeout: timeoutFor(config),
		logger:      slog.Default().With("component", "openai-ranker"),
	}, nil
}

// NewRanker creates a new reasoning ranker using the provided configuration.
//
// Returns ai.Ranker interface to enforce abstraction.
func NewRanker(config *ai.Config) (ai.Ranker, error) {
	return newRanker(config)
}

// RankCandidates submits one batched ranking request and parses the output
// line by line. Malformed lines are skipped with a warning; callers must
// default candidates missing from the result.
func (r *Ranker) RankCandidates(ctx context.Context, query string, candidates []ai.CandidateLine) ([]ai.RankedLine, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	ctx, cancel := r.callTimeout(ctx)
	defer cancel()

	var input strings.Builder
	input.WriteString("Query: ")
	input.WriteString(scrubControl(query))
	input.WriteString("\n\nCandidates:\n")
	for _, c := range candidates {
		input.WriteString(strconv.FormatInt(int64(c.ID), 10))
		input.WriteString(" :: ")
		input.WriteString(c.Line)
		input.WriteString("\n")
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(rankerPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(input.String())},
		},
	}

	response, err := r.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		r.logger.Error("ranking call failed", "candidates", len(candidates), "err", err)
		return nil, err
	}

	if len(response.Choices) < 1 {
		r.logger.Warn("no choices returned from ranking model")
		return nil, nil
	}

	lines := ParseRankedOutput(response.Choices[0].Content, r.logger)
	r.logger.Debug("ranked candidates", "submitted", len(candidates), "parsed", len(lines))
	return lines, nil
}

// ParseRankedOutput parses reasoning-ranker output under the strict line
// contract. Lines that don't match the pattern are skipped. Exported for
// reuse by tests and alternative transports.
func ParseRankedOutput(output string, logger *slog.Logger) []ai.RankedLine {
	if logger == nil {
		logger = slog.Default()
	}

	var out []ai.RankedLine
	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		m := rankedLinePattern.FindStringSubmatch(line)
		if m == nil {
			logger.Warn("skipping malformed ranking line", "line", line)
			continue
		}

		id, _ := strconv.ParseInt(m[1], 10, 64)
		tier, _ := strconv.Atoi(m[2])
		score, _ := strconv.ParseFloat(m[3], 64)

		out = append(out, ai.RankedLine{
			ID:            core.ID(id),
			Tier:          tier,
			Score:         score,
			SubScores:     parseSubScores(m[4]),
			Justification: m[5],
		})
	}
	return out
}

// parseSubScores parses "name=0.8,other=0.5" pairs, skipping malformed ones.
func parseSubScores(s string) map[string]float64 {
	out := map[string]float64{}
	for _, pair := range strings.Split(s, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			continue
		}
		out[strings.TrimSpace(parts[0])] = v
	}
	return out
}
