package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name   string
		label  string
		client string
		want   DeploymentCode
	}{
		{"billable label", "Billable - Client Project", "Acme Corp", DeployClient},
		{"deployed label", "Deployed", "Acme Corp", DeployClient},
		{"bench label", "On Bench", "", DeployFree},
		{"available label", "Available", "", DeployFree},
		{"backup cluster", "Backup Resource", "Acme Corp", DeployBackup},
		{"support cluster", "Production Support", "Acme Corp", DeployBackup},
		{"shadow cluster", "Shadow Allocation", "Acme Corp", DeployShadow},
		{"learning cluster", "Learning Assignment", "Acme Corp", DeployShadow},
		{"rnd cluster", "Research Project", "Labs", DeployRnD},
		{"budgeted cluster", "Planned Allocation", "Acme Corp", DeployBudgeted},
		{"business cluster", "Marketing Initiative", "", DeployBusiness},
		{"training cluster", "Training Program", "", DeployTraining},
		{"case insensitive", "BILLABLE", "Acme", DeployClient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStatus(tt.label, tt.client))
		})
	}
}

func TestClassifyStatus_InternalOverride(t *testing.T) {
	t.Run("internal client overrides billable", func(t *testing.T) {
		got := ClassifyStatus("Billable", "Internal Tools Group")
		assert.Equal(t, DeployInternal, got)
	})

	t.Run("inhouse marker overrides", func(t *testing.T) {
		got := ClassifyStatus("Deployed", "Inhouse Platform")
		assert.Equal(t, DeployInternal, got)
	})

	t.Run("free is never overridden", func(t *testing.T) {
		got := ClassifyStatus("On Bench", "Internal Tools Group")
		assert.Equal(t, DeployFree, got)
	})

	t.Run("external client untouched", func(t *testing.T) {
		got := ClassifyStatus("Billable", "Globex")
		assert.Equal(t, DeployClient, got)
	})
}

func TestClassifyStatus_DerivedFallback(t *testing.T) {
	t.Run("unknown label derives short code", func(t *testing.T) {
		got := ClassifyStatus("Quarterly Audit Review", "Globex")
		assert.Equal(t, DeploymentCode("qar"), got)
	})

	t.Run("derived code capped at four characters", func(t *testing.T) {
		got := DerivedStatusCode("alpha beta gamma delta epsilon")
		assert.Len(t, string(got), 4)
	})

	t.Run("empty label derives to free", func(t *testing.T) {
		assert.Equal(t, DeployFree, DerivedStatusCode(""))
	})
}

func TestIsValidDeployment(t *testing.T) {
	assert.True(t, IsValidDeployment("free"))
	assert.True(t, IsValidDeployment(" Client "))
	assert.False(t, IsValidDeployment("vacation"))
	assert.False(t, IsValidDeployment(""))
}

func TestIsExternal(t *testing.T) {
	assert.True(t, DeployClient.IsExternal())
	assert.True(t, DeployBackup.IsExternal())
	assert.True(t, DeployShadow.IsExternal())
	assert.False(t, DeployFree.IsExternal())
	assert.False(t, DeployInternal.IsExternal())
	assert.False(t, DeployRnD.IsExternal())
}

func TestDefaultDesirability_TotalOverEnum(t *testing.T) {
	for _, code := range DeploymentCodes {
		_, ok := DefaultDesirability[code]
		assert.True(t, ok, "missing desirability for %q", code)
	}
}
