package retrieval

import (
	"sort"
	"strings"

	"github.com/poiesic/talentmatch/compress"
	"github.com/poiesic/talentmatch/core"
)

// seniorityMarkers score designations by title keywords. First match wins.
var seniorityMarkers = []struct {
	keyword string
	score   float64
}{
	{"principal", 1.0},
	{"architect", 1.0},
	{"director", 1.0},
	{"lead", 0.85},
	{"manager", 0.8},
	{"senior", 0.75},
	{"junior", 0.2},
	{"trainee", 0.1},
	{"intern", 0.1},
}

// domainClusters group skill keywords into coarse technology domains used
// for alignment scoring. A candidate whose detected domains share nothing
// with the query's takes a hard penalty.
var domainClusters = map[string][]string{
	"data":    {"python", "spark", "hadoop", "etl", "pandas", "sql", "ml", "machine learning", "tensorflow", "pytorch", "analytics", "data"},
	"web":     {"react", "angular", "vue", "javascript", "typescript", "css", "html", "frontend", "node", "nodejs"},
	"backend": {"java", "spring", "go", "golang", "dotnet", ".net", "c#", "microservices", "api", "kafka", "grpc"},
	"mobile":  {"android", "ios", "swift", "kotlin", "flutter", "react native"},
	"devops":  {"kubernetes", "docker", "terraform", "aws", "azure", "gcp", "ci", "cd", "jenkins", "devops"},
	"qa":      {"selenium", "testing", "automation", "qa", "cypress"},
}

const unrelatedDomainPenalty = 0.05

// Rerank orders merged candidates by five weighted sub-scores. The weight
// set depends on query intent: explicit skill or domain context shifts
// weight onto skill overlap and domain alignment, otherwise availability
// and seniority dominate. Ties keep the original retrieval order.
func (e *Engine) Rerank(merged []core.RetrievedCandidate, query string, filters *core.ParsedFilters) []core.RetrievedCandidate {
	if len(merged) < 2 {
		return merged
	}
	if filters == nil {
		filters = core.NewParsedFilters()
	}

	weights := e.policy.DefaultWeights
	if len(filters.Skills) > 0 || strings.TrimSpace(filters.Context) != "" {
		weights = e.policy.SkillIntentWeights
	}

	queryDomains := detectDomains(strings.ToLower(query + " " + filters.Context + " " + strings.Join(filters.Skills, " ")))

	scores := make(map[core.ID]float64, len(merged))
	for _, c := range merged {
		scores[c.Employee.ID] = e.combinedScore(c.Employee, filters, queryDomains, weights)
	}

	out := make([]core.RetrievedCandidate, len(merged))
	copy(out, merged)
	sort.SliceStable(out, func(i, j int) bool {
		return scores[out[i].Employee.ID] > scores[out[j].Employee.ID]
	})
	return out
}

func (e *Engine) combinedScore(emp *core.Employee, filters *core.ParsedFilters, queryDomains map[string]bool, w Weights) float64 {
	seniority := seniorityScore(emp.Designation)
	availability := e.availabilityScore(emp)
	skills := skillOverlapScore(emp, filters.Skills)
	domain := domainAlignmentScore(emp, queryDomains)
	location := locationScore(emp, filters.Location)

	return w.Seniority*seniority +
		w.Availability*availability +
		w.Skills*skills +
		w.Domain*domain +
		w.Location*location
}

func seniorityScore(designation string) float64 {
	d := strings.ToLower(designation)
	for _, m := range seniorityMarkers {
		if strings.Contains(d, m.keyword) {
			return m.score
		}
	}
	return 0.5
}

// availabilityScore takes the best desirability across the candidate's
// engagement codes. No engagements means free.
func (e *Engine) availabilityScore(emp *core.Employee) float64 {
	if len(emp.Engagements) == 0 {
		return e.policy.Desirability[core.DeployFree]
	}

	best := 0.0
	for _, eng := range emp.Engagements {
		code := core.ClassifyStatus(eng.StatusLabel, eng.Client)
		if d, ok := e.policy.Desirability[code]; ok && d > best {
			best = d
		}
	}
	return best
}

func skillOverlapScore(emp *core.Employee, wanted []string) float64 {
	if len(wanted) == 0 {
		return 0.5
	}

	variants := compress.NormalizeSkills(emp.Skills)
	have := make(map[string]bool, len(variants))
	for _, v := range variants {
		have[v] = true
	}

	matched := 0
	for _, skill := range wanted {
		for _, v := range compress.NormalizeSkills(skill) {
			if have[v] {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(wanted))
}

func domainAlignmentScore(emp *core.Employee, queryDomains map[string]bool) float64 {
	if len(queryDomains) == 0 {
		return 0.5
	}

	candidateDomains := detectDomains(strings.ToLower(emp.Skills + " " + emp.Designation + " " + emp.Department))
	if len(candidateDomains) == 0 {
		return 0.3
	}

	overlap := 0
	for d := range queryDomains {
		if candidateDomains[d] {
			overlap++
		}
	}
	if overlap == 0 {
		return unrelatedDomainPenalty
	}
	return float64(overlap) / float64(len(queryDomains))
}

func locationScore(emp *core.Employee, wanted string) float64 {
	wanted = strings.ToLower(strings.TrimSpace(wanted))
	if wanted == "" {
		return 0.5
	}
	if locationMatches(emp.Location, wanted) {
		return 1.0
	}
	return 0.0
}

// detectDomains returns the set of domain clusters whose keywords appear
// in the text.
func detectDomains(text string) map[string]bool {
	out := map[string]bool{}
	for domain, keywords := range domainClusters {
		for _, kw := range keywords {
			if containsWord(text, kw) {
				out[domain] = true
				break
			}
		}
	}
	return out
}

// containsWord matches a keyword on word boundaries so "go" does not match
// "google" or "django".
func containsWord(text, keyword string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], keyword)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(keyword)
		beforeOK := start == 0 || !isWordRune(text[start-1])
		afterOK := end == len(text) || !isWordRune(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordRune(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func experienceYears(emp *core.Employee) float64 {
	return compress.ParseExperienceYears(emp.TotalExperience, emp.RelevantExperience)
}
