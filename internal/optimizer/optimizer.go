package optimizer

import (
	"context"
	"encoding/json"
	"fmt"
)

// optimize drafts a candidate segment prompt from the losing call, scores it
// against the full test corpus, and deploys it only if the mean score clears
// the threshold. A failing or unverifiable candidate is discarded; the live
// prompt is never touched until the gate passes.
func (p *Processor) optimize(ctx context.Context, o Outcome, transcript string, result Result) (PassResult, error) {
	current, err := p.prompts.Resolve(ctx, o.Country, o.Industry)
	if err != nil {
		// Includes ErrNoPromptConfigured: a config defect, surfaced loudly.
		return PassResult{}, fmt.Errorf("resolve current prompt: %w", err)
	}

	candidate, err := p.llm.Generate(ctx, fmt.Sprintf(draftPrompt,
		o.Industry, o.Country, current, transcript, string(result)))
	if err != nil {
		return PassResult{}, fmt.Errorf("draft candidate: %w", err)
	}

	cases, err := p.corpus.All(ctx)
	if err != nil {
		return PassResult{}, fmt.Errorf("load test corpus: %w", err)
	}
	if len(cases) == 0 {
		// Nothing to verify against: never deploy unverified.
		p.logger.Warn("empty test corpus, discarding candidate",
			"call_id", o.CallID, "country", o.Country, "industry", o.Industry)
		return PassResult{Status: StatusPromptDiscarded, Candidate: candidate}, nil
	}

	var total float64
	for _, tc := range cases {
		score, err := p.scoreCase(ctx, candidate, tc.Input, tc.Target)
		if err != nil {
			return PassResult{}, fmt.Errorf("evaluate candidate: %w", err)
		}
		total += score
	}
	mean := total / float64(len(cases))

	p.logger.Info("candidate evaluated",
		"call_id", o.CallID,
		"country", o.Country,
		"industry", o.Industry,
		"cases", len(cases),
		"score", mean,
		"threshold", p.deployThreshold,
	)

	if mean < p.deployThreshold {
		return PassResult{Status: StatusPromptDiscarded, Candidate: candidate, Score: mean}, nil
	}

	if err := p.prompts.Deploy(ctx, o.Country, o.Industry, candidate); err != nil {
		return PassResult{}, fmt.Errorf("deploy candidate: %w", err)
	}
	p.logger.Info("candidate deployed", "call_id", o.CallID, "country", o.Country, "industry", o.Industry)
	return PassResult{Status: StatusPromptDeployed, Candidate: candidate, Score: mean}, nil
}

// scoreCase simulates a response under the candidate prompt, then asks the
// oracle in a judging role to score it against the case's target approach.
func (p *Processor) scoreCase(ctx context.Context, candidate, input, target string) (float64, error) {
	response, err := p.llm.Generate(ctx, fmt.Sprintf(simulatePrompt, candidate, input))
	if err != nil {
		return 0, fmt.Errorf("simulate response: %w", err)
	}

	raw, err := p.llm.GenerateJSON(ctx, fmt.Sprintf(judgePrompt, input, response, target))
	if err != nil {
		return 0, fmt.Errorf("judge response: %w", err)
	}

	var verdict struct {
		AddressesObjection bool    `json:"addresses_objection"`
		ProfessionalTone   bool    `json:"professional_tone"`
		AlignsWithTarget   bool    `json:"aligns_with_target"`
		OverallScore       float64 `json:"overall_score"`
	}
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		// An unreadable verdict scores zero rather than failing the pass.
		p.logger.Warn("could not parse judge verdict", "error", err, "raw", raw)
		return 0, nil
	}

	score := verdict.OverallScore
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, nil
}
