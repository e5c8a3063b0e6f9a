package core

import "strings"

// DeploymentCode is the closed set of engagement status codes. Raw status
// labels are classified into exactly one code by ClassifyStatus; labels
// matching no cluster get a derived short code via DerivedStatusCode.
type DeploymentCode string

const (
	// DeployFree marks an unallocated employee.
	DeployFree DeploymentCode = "free"
	// DeployClient marks a billable client engagement.
	DeployClient DeploymentCode = "client"
	// DeployBackup marks a backup or support allocation.
	DeployBackup DeploymentCode = "backup"
	// DeployShadow marks a shadow or learning allocation.
	DeployShadow DeploymentCode = "shadow"
	// DeployRnD marks internal research and development work.
	DeployRnD DeploymentCode = "rnd"
	// DeployBudgeted marks a budgeted or planned allocation not yet active.
	DeployBudgeted DeploymentCode = "budgeted"
	// DeployBusiness marks business development or marketing work.
	DeployBusiness DeploymentCode = "business"
	// DeployTraining marks a training allocation.
	DeployTraining DeploymentCode = "training"
	// DeployInternal marks work for an org-internal counterparty. Assigned
	// only by the internal-client override, never by label clusters.
	DeployInternal DeploymentCode = "internal"
)

// DeploymentCodes lists every valid code, used to validate collaborator
// output against the controlled vocabulary.
var DeploymentCodes = []DeploymentCode{
	DeployFree, DeployClient, DeployBackup, DeployShadow, DeployRnD,
	DeployBudgeted, DeployBusiness, DeployTraining, DeployInternal,
}

// IsValidDeployment reports whether s is a member of the controlled set.
func IsValidDeployment(s string) bool {
	for _, c := range DeploymentCodes {
		if string(c) == strings.ToLower(strings.TrimSpace(s)) {
			return true
		}
	}
	return false
}

// statusClusters maps each code to the keyword cluster that selects it.
// Order matters: the first cluster containing a keyword present in the
// label wins, so more specific clusters come first.
var statusClusters = []struct {
	code     DeploymentCode
	keywords []string
}{
	{DeployShadow, []string{"shadow", "learning", "observer"}},
	{DeployBackup, []string{"backup", "support", "standby"}},
	{DeployRnD, []string{"r&d", "research", "development initiative", "innovation"}},
	{DeployBudgeted, []string{"budget", "planned", "pipeline", "proposed"}},
	{DeployBusiness, []string{"business", "marketing", "presales", "pre-sales"}},
	{DeployTraining, []string{"training", "bootcamp", "onboarding"}},
	{DeployClient, []string{"billable", "client", "billed", "deployed"}},
	{DeployFree, []string{"free", "bench", "available", "unallocated"}},
}

// internalClientMarkers are the two substrings that identify an
// org-internal counterparty in the Client field.
var internalClientMarkers = []string{"internal", "inhouse"}

// ClassifyStatus maps a raw engagement status label and counterparty to a
// deployment code. Classification is total: labels matching no keyword
// cluster fall back to a derived short code. An org-internal counterparty
// overrides the result to DeployInternal unless the label classified as
// free.
func ClassifyStatus(statusLabel, client string) DeploymentCode {
	label := strings.ToLower(strings.TrimSpace(statusLabel))

	code := DeploymentCode("")
	for _, cluster := range statusClusters {
		for _, kw := range cluster.keywords {
			if strings.Contains(label, kw) {
				code = cluster.code
				break
			}
		}
		if code != "" {
			break
		}
	}

	if code == "" {
		code = DerivedStatusCode(statusLabel)
	}

	if code != DeployFree && isInternalClient(client) {
		return DeployInternal
	}

	return code
}

// DerivedStatusCode builds a short code from the first letters of the
// label's words, at most four characters. Empty labels derive to free.
func DerivedStatusCode(statusLabel string) DeploymentCode {
	words := strings.Fields(strings.ToLower(statusLabel))
	if len(words) == 0 {
		return DeployFree
	}

	var b strings.Builder
	for _, w := range words {
		b.WriteByte(w[0])
		if b.Len() >= 4 {
			break
		}
	}
	return DeploymentCode(b.String())
}

func isInternalClient(client string) bool {
	c := strings.ToLower(client)
	for _, marker := range internalClientMarkers {
		if strings.Contains(c, marker) {
			return true
		}
	}
	return false
}

// IsExternal reports whether the code counts toward external occupancy in
// pre-ranking. Free, internal and R&D allocations do not.
func (c DeploymentCode) IsExternal() bool {
	switch c {
	case DeployFree, DeployInternal, DeployRnD, DeployTraining:
		return false
	}
	return true
}

// DefaultDesirability is the fixed deployment-code -> desirability table
// used by availability scoring. Higher means easier to staff. Values are
// reproduced operational defaults, not derived truths; override via the
// retrieval policy.
var DefaultDesirability = map[DeploymentCode]float64{
	DeployFree:     1.0,
	DeployBudgeted: 0.85,
	DeployTraining: 0.75,
	DeployShadow:   0.7,
	DeployRnD:      0.6,
	DeployInternal: 0.55,
	DeployBusiness: 0.5,
	DeployBackup:   0.4,
	DeployClient:   0.15,
}
