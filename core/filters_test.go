package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsedFilters_Normalize(t *testing.T) {
	f := NewParsedFilters()
	f.Skills = []string{" Python ", "GO", ""}
	f.Location = " Bangalore "
	f.Deployment = "FREE"

	f.Normalize()

	assert.Equal(t, []string{"go", "python"}, f.Skills)
	assert.Equal(t, "bangalore", f.Location)
	assert.Equal(t, "free", f.Deployment)
}

func TestParsedFilters_Strict(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*ParsedFilters)
		want bool
	}{
		{"empty", func(f *ParsedFilters) {}, false},
		{"deployment set", func(f *ParsedFilters) { f.Deployment = "free" }, true},
		{"project set", func(f *ParsedFilters) { f.Project = "apollo" }, true},
		{"skills only", func(f *ParsedFilters) { f.Skills = []string{"go"} }, false},
		{"experience only", func(f *ParsedFilters) { f.ExperienceMin = 3 }, false},
		{"skills plus experience min", func(f *ParsedFilters) {
			f.Skills = []string{"go"}
			f.ExperienceMin = 3
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewParsedFilters()
			tt.mod(f)
			assert.Equal(t, tt.want, f.Strict())
		})
	}
}

func TestParsedFilters_Fingerprint(t *testing.T) {
	t.Run("order independent", func(t *testing.T) {
		a := NewParsedFilters()
		a.Skills = []string{"python", "go"}
		b := NewParsedFilters()
		b.Skills = []string{"go", "python"}
		assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	})

	t.Run("case and whitespace independent", func(t *testing.T) {
		a := NewParsedFilters()
		a.Location = "Pune"
		b := NewParsedFilters()
		b.Location = " pune "
		assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	})

	t.Run("different filters differ", func(t *testing.T) {
		a := NewParsedFilters()
		a.Deployment = "free"
		b := NewParsedFilters()
		b.Deployment = "client"
		assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	})

	t.Run("does not mutate the receiver", func(t *testing.T) {
		f := NewParsedFilters()
		f.Skills = []string{"Python", "Go"}
		f.Fingerprint()
		assert.Equal(t, []string{"Python", "Go"}, f.Skills)
	})
}

func TestParsedFilters_Empty(t *testing.T) {
	f := NewParsedFilters()
	assert.True(t, f.Empty())

	f.Context = "banking"
	assert.False(t, f.Empty())
}
