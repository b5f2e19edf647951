package optimizer

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Origin identifies who ran the call.
type Origin string

const (
	OriginHuman   Origin = "HUMAN_MANAGER"
	OriginAIAgent Origin = "AI_AGENT"
)

// Result is the call outcome signal.
type Result string

const (
	ResultClosedDeal Result = "CLOSED_DEAL"
	ResultLostDeal   Result = "LOST_DEAL"
)

// Turn is one utterance in a call transcript.
type Turn struct {
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Outcome is the record of one completed call, consumed once per learning
// pass. An empty Result is classified from the transcript by the oracle.
type Outcome struct {
	CallID     uuid.UUID
	Transcript []Turn
	Origin     Origin
	Result     Result
	Country    string
	Industry   string
}

// Status summarises what a learning pass did.
type Status string

const (
	StatusSkillLearned    Status = "skill_learned"
	StatusPromptDeployed  Status = "prompt_deployed"
	StatusPromptDiscarded Status = "prompt_discarded"
	StatusGraded          Status = "graded"
	StatusNoAction        Status = "no_action"
)

// PassResult reports one pass. Objection/Rebuttal are set when a skill was
// mined; Candidate and Score when a prompt was drafted and evaluated; Grade
// when an AI agent was graded against a known rebuttal.
type PassResult struct {
	Status    Status
	Objection string
	Rebuttal  string
	Candidate string
	Score     float64
	Grade     float64
}

// FormatTranscript renders turns as "speaker: text" lines for oracle calls.
func FormatTranscript(turns []Turn) string {
	var b strings.Builder
	for _, t := range turns {
		b.WriteString(t.Speaker)
		b.WriteString(": ")
		b.WriteString(t.Text)
		b.WriteString("\n")
	}
	return b.String()
}
