package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/talentmatch/core"
)

const filterResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "skills": {
      "type": "array",
      "items": {"type": "string"}
    },
    "context": {"type": "string"},
    "experience_min": {"type": ["number", "null"]},
    "experience_max": {"type": ["number", "null"]},
    "deployment": {"type": "string"},
    "location": {"type": "string"},
    "department": {"type": "string"},
    "designation": {"type": "string"},
    "project": {"type": "string"},
    "employee_name": {"type": "string"}
  },
  "required": ["skills"],
  "additionalProperties": false
}`

const filterPromptTemplate = `Extract structured search filters from a free-text query about employees and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- "skills" lists concrete technical skills named in the query, lowercase. Omit soft skills.
- "context" preserves intent that is not a hard filter (seniority hints, project domain, urgency).
- "experience_min" and "experience_max" are years as numbers; use null when the query gives no bound.
- "deployment" must be exactly one of: %s. Leave it empty when the query does not ask about availability or allocation.
- "location", "department", "designation", "project", "employee_name" are copied from the query when explicitly present, otherwise empty strings.
- Never invent filters the query does not state. "looking for someone in Pune" sets location, not department.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Query: "python developers on the bench with at least 3 years"
Output: {"skills": ["python"], "context": "", "experience_min": 3, "experience_max": null, "deployment": "free", "location": "", "department": "", "designation": "", "project": "", "employee_name": ""}`

// buildParserPrompt renders the filter-extraction system prompt with the
// controlled deployment vocabulary.
func buildParserPrompt() string {
	codes := make([]string, len(core.DeploymentCodes))
	for i, c := range core.DeploymentCodes {
		codes[i] = string(c)
	}
	return fmt.Sprintf(filterPromptTemplate, filterResponseSchema, strings.Join(codes, ", "))
}

const rankerPrompt = `You rank employee candidates against a staffing query. The input gives the query and one
candidate per line as "id :: profile", where the profile is a compact pipe-delimited summary of skills,
role, location, experience, and current engagements.

For every candidate, output exactly one line in this format and nothing else:

id | TIER n | score | [skills=0.0,experience=0.0,availability=0.0,domain=0.0,location=0.0] | justification

Rules:
- "id" is copied verbatim from the input line.
- "n" is an integer 1-4. Tier 1: strong match and readily available. Tier 2: good match with minor gaps
  or partial availability. Tier 3: partial match or heavily allocated. Tier 4: poor match or unavailable.
- "score" is a number 0-100 reflecting overall fit; tiers order candidates first, score orders within a tier.
- The bracketed sub-scores are each 0.0-1.0. Score skills against the queried skills, availability against
  the candidate's current deployment, and domain against the query context.
- "justification" is one short sentence. Do not use the pipe character inside it.
- Output one line per candidate, no headers, no commentary, no blank lines between candidates.`
