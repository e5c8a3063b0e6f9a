package ranking

import (
	"context"
	"fmt"
	"sort"

	"github.com/poiesic/talentmatch/ai"
	"github.com/poiesic/talentmatch/core"
)

const absentJustification = "not ranked by reasoning service"

// ReasonRank submits candidates to the reasoning ranker in bounded batches
// and returns exactly one record per input profile: candidates the
// reasoner skipped or mangled default to tier 4 / score 0. A failed
// reasoning call fails the whole stage; the caller falls back to
// rule-based ranking.
func (p *Pipeline) ReasonRank(ctx context.Context, query string, profiles []*core.CompressedProfile) ([]core.RankedCandidate, error) {
	if len(profiles) == 0 {
		return nil, nil
	}

	byID := make(map[core.ID]ai.RankedLine)

	for start := 0; start < len(profiles); start += p.policy.BatchSize {
		end := start + p.policy.BatchSize
		if end > len(profiles) {
			end = len(profiles)
		}
		batch := profiles[start:end]

		lines := make([]ai.CandidateLine, len(batch))
		for i, profile := range batch {
			lines[i] = ai.CandidateLine{ID: profile.EmployeeID, Line: profile.Line}
		}

		if err := p.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		ranked, err := p.ranker.RankCandidates(ctx, query, lines)
		p.sem.Release(1)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrRankingDegraded, err)
		}

		for _, line := range ranked {
			byID[line.ID] = line
		}
	}

	out := make([]core.RankedCandidate, 0, len(profiles))
	for _, profile := range profiles {
		line, ok := byID[profile.EmployeeID]
		if !ok {
			out = append(out, core.RankedCandidate{
				Profile:       profile,
				Tier:          4,
				Score:         0,
				Justification: absentJustification,
				Method:        core.MethodReasoning,
			})
			continue
		}

		tier := line.Tier
		if tier < 1 || tier > 4 {
			tier = 4
		}
		out = append(out, core.RankedCandidate{
			Profile:       profile,
			Tier:          tier,
			Score:         clampToBand(line.Score, p.policy.band(tier)),
			SubScores:     line.SubScores,
			Justification: line.Justification,
			Method:        core.MethodReasoning,
		})
	}
	return out, nil
}

// Combine concatenates the two ranking stages and orders the result by
// tier ascending, score descending. Nothing is dropped.
func Combine(preRanked, reasoned []core.RankedCandidate) []core.RankedCandidate {
	out := make([]core.RankedCandidate, 0, len(preRanked)+len(reasoned))
	out = append(out, reasoned...)
	out = append(out, preRanked...)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier < out[j].Tier
		}
		return out[i].Score > out[j].Score
	})
	return out
}
