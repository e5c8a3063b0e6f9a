package retrieval

import (
	"testing"

	"github.com/poiesic/talentmatch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRerank(t *testing.T) {
	env := newTestEnv(t)

	benchData := &core.Employee{
		ID: 1, Name: "Bench Data", Designation: "Engineer",
		Skills: "Python, Spark", Location: "Pune",
	}
	busyData := &core.Employee{
		ID: 2, Name: "Busy Data", Designation: "Senior Engineer",
		Skills: "Python, Spark", Location: "Pune",
		Engagements: []core.Engagement{{StatusLabel: "billable", Occupancy: 100, Client: "Acme"}},
	}
	mobileDev := &core.Employee{
		ID: 3, Name: "Mobile Dev", Designation: "Engineer",
		Skills: "Swift, Kotlin", Location: "Pune",
	}

	asCandidates := func(emps ...*core.Employee) []core.RetrievedCandidate {
		out := make([]core.RetrievedCandidate, len(emps))
		for i, e := range emps {
			out[i] = core.RetrievedCandidate{Employee: e, Source: core.SourceStructured}
		}
		return out
	}

	t.Run("skill intent favors matching domain over availability", func(t *testing.T) {
		filters := core.NewParsedFilters()
		filters.Skills = []string{"python"}
		filters.Context = "data pipelines"

		ranked := env.engine.Rerank(asCandidates(mobileDev, busyData, benchData), "python data pipelines", filters)
		require.Len(t, ranked, 3)
		assert.Equal(t, core.ID(3), ranked[2].Employee.ID, "unrelated domain sinks last")
	})

	t.Run("no intent favors availability and seniority", func(t *testing.T) {
		filters := core.NewParsedFilters()

		ranked := env.engine.Rerank(asCandidates(busyData, benchData), "who can we staff", filters)
		require.Len(t, ranked, 2)
		assert.Equal(t, core.ID(1), ranked[0].Employee.ID, "bench beats fully billed")
	})

	t.Run("stable for ties", func(t *testing.T) {
		twin := &core.Employee{ID: 4, Name: "Twin", Designation: "Engineer", Skills: "Python, Spark", Location: "Pune"}

		ranked := env.engine.Rerank(asCandidates(benchData, twin), "python", core.NewParsedFilters())
		require.Len(t, ranked, 2)
		assert.Equal(t, core.ID(1), ranked[0].Employee.ID)
		assert.Equal(t, core.ID(4), ranked[1].Employee.ID)
	})

	t.Run("short input returned unchanged", func(t *testing.T) {
		single := asCandidates(benchData)
		assert.Equal(t, single, env.engine.Rerank(single, "q", nil))
	})
}

func TestSeniorityScore(t *testing.T) {
	assert.Equal(t, 1.0, seniorityScore("Principal Architect"))
	assert.Equal(t, 0.75, seniorityScore("Senior Engineer"))
	assert.Equal(t, 0.1, seniorityScore("Intern"))
	assert.Equal(t, 0.5, seniorityScore("Engineer"))
}

func TestSkillOverlapScore(t *testing.T) {
	emp := &core.Employee{Skills: "Python, Machine Learning"}

	assert.Equal(t, 1.0, skillOverlapScore(emp, []string{"python"}))
	assert.Equal(t, 0.5, skillOverlapScore(emp, []string{"python", "rust"}))
	assert.Equal(t, 0.0, skillOverlapScore(emp, []string{"rust"}))
	assert.Equal(t, 0.5, skillOverlapScore(emp, nil))
}

func TestDetectDomains(t *testing.T) {
	domains := detectDomains("python and spark pipelines on kubernetes")
	assert.True(t, domains["data"])
	assert.True(t, domains["devops"])
	assert.False(t, domains["mobile"])

	t.Run("word boundaries", func(t *testing.T) {
		assert.False(t, detectDomains("django templates")["backend"], "go must not match django")
	})
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Zero(t, CosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}
