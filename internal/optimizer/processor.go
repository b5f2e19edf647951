// Package optimizer orchestrates the learning loop triggered by one
// completed call: mine skills from human-demonstrated wins, and draft,
// verify, and conditionally deploy improved segment prompts after losses.
package optimizer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/riverline-ai/refinery/internal/corpus"
	"github.com/riverline-ai/refinery/internal/prompts"
	"github.com/riverline-ai/refinery/internal/skills"
)

// Generator is the generation oracle. It serves extraction, drafting, and
// judging; the role is carried entirely by the instructions.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// Options holds the tunable learning-loop policy. Zero values select the
// defaults the loop was calibrated with.
type Options struct {
	// DeployThreshold is the minimum mean evaluation score a candidate
	// prompt must reach to replace the live one. Default 0.5.
	DeployThreshold float64
	// MinSkillQuality is the minimum extraction quality_score for a winning
	// exchange to be mined into a skill. Default 0.8.
	MinSkillQuality float64
}

const (
	defaultDeployThreshold = 0.5
	defaultMinSkillQuality = 0.8
)

// Processor runs one learning pass per completed call. It holds no mutable
// state of its own; passes for different calls may run concurrently.
type Processor struct {
	skills          *skills.Store
	corpus          *corpus.Manager
	prompts         *prompts.Registry
	llm             Generator
	logger          *slog.Logger
	deployThreshold float64
	minSkillQuality float64
}

func New(sk *skills.Store, co *corpus.Manager, pr *prompts.Registry, llm Generator, opts Options, logger *slog.Logger) *Processor {
	if opts.DeployThreshold <= 0 {
		opts.DeployThreshold = defaultDeployThreshold
	}
	if opts.MinSkillQuality <= 0 {
		opts.MinSkillQuality = defaultMinSkillQuality
	}
	return &Processor{
		skills:          sk,
		corpus:          co,
		prompts:         pr,
		llm:             llm,
		logger:          logger,
		deployThreshold: opts.DeployThreshold,
		minSkillQuality: opts.MinSkillQuality,
	}
}

// Process runs a single pass over one call outcome. Oracle failures abort
// the pass with an error and leave all durable state untouched; the
// documented skip combinations return StatusNoAction without error.
func (p *Processor) Process(ctx context.Context, o Outcome) (PassResult, error) {
	transcript := FormatTranscript(o.Transcript)

	result := o.Result
	if result == "" {
		var err error
		result, err = p.determineOutcome(ctx, transcript)
		if err != nil {
			return PassResult{}, fmt.Errorf("determine outcome: %w", err)
		}
		p.logger.Info("outcome auto-determined", "call_id", o.CallID, "result", string(result))
	}

	switch {
	case o.Origin == OriginHuman && result == ResultClosedDeal:
		return p.mineSkill(ctx, o, transcript)

	case o.Origin == OriginAIAgent:
		res, err := p.gradeAgent(ctx, o, transcript)
		if err != nil {
			return PassResult{}, err
		}
		if result == ResultLostDeal {
			opt, err := p.optimize(ctx, o, transcript, result)
			opt.Grade = res.Grade
			return opt, err
		}
		return res, nil

	case result == ResultLostDeal:
		// Lost deals feed the optimizer regardless of who ran the call.
		return p.optimize(ctx, o, transcript, result)
	}

	p.logger.Info("no learning signal for this combination",
		"call_id", o.CallID, "origin", string(o.Origin), "result", string(result))
	return PassResult{Status: StatusNoAction}, nil
}

// extraction is the judged pivot point of a call.
type extraction struct {
	Objection string  `json:"objection"`
	Rebuttal  string  `json:"rebuttal"`
	Approach  string  `json:"approach"`
	Quality   float64 `json:"quality_score"`
}

func (p *Processor) extract(ctx context.Context, transcript string) (extraction, error) {
	raw, err := p.llm.GenerateJSON(ctx, fmt.Sprintf(extractionPrompt, transcript))
	if err != nil {
		return extraction{}, fmt.Errorf("llm extraction: %w", err)
	}

	var ex extraction
	if err := json.Unmarshal([]byte(raw), &ex); err != nil {
		p.logger.Error("failed to parse extraction response", "error", err, "raw", raw)
		return extraction{}, fmt.Errorf("parse extraction: %w", err)
	}
	return ex, nil
}

// mineSkill handles a human-demonstrated win: extract the winning exchange
// and record it as a skill plus one evaluation case.
func (p *Processor) mineSkill(ctx context.Context, o Outcome, transcript string) (PassResult, error) {
	ex, err := p.extract(ctx, transcript)
	if err != nil {
		return PassResult{}, err
	}

	if ex.Objection == "" {
		p.logger.Info("no objection identified, nothing to learn", "call_id", o.CallID)
		return PassResult{Status: StatusNoAction}, nil
	}
	if ex.Quality < p.minSkillQuality {
		p.logger.Info("exchange below skill quality bar",
			"call_id", o.CallID, "quality", ex.Quality, "min", p.minSkillQuality)
		return PassResult{Status: StatusNoAction}, nil
	}

	if _, err := p.skills.Store(ctx, ex.Objection, ex.Rebuttal); err != nil {
		// No test case for an unrecorded skill.
		return PassResult{}, fmt.Errorf("record skill: %w", err)
	}

	target := ex.Approach
	if target == "" {
		target = ex.Rebuttal
	}
	res := PassResult{Status: StatusSkillLearned, Objection: ex.Objection, Rebuttal: ex.Rebuttal}
	if err := p.corpus.AddFromSkill(ctx, ex.Objection, target); err != nil {
		// The skill itself is durable; report the partial failure.
		return res, fmt.Errorf("add test case: %w", err)
	}

	p.logger.Info("skill learned", "call_id", o.CallID, "objection", ex.Objection)
	return res, nil
}

// gradeAgent compares the AI agent's rebuttal to the known best one for the
// same objection. Grading is informational; it never blocks the pass.
func (p *Processor) gradeAgent(ctx context.Context, o Outcome, transcript string) (PassResult, error) {
	ex, err := p.extract(ctx, transcript)
	if err != nil {
		return PassResult{}, err
	}
	if ex.Objection == "" {
		return PassResult{Status: StatusNoAction}, nil
	}

	grade := 0.5
	known, found, err := p.skills.Known(ctx, ex.Objection)
	if err != nil {
		return PassResult{}, fmt.Errorf("grade agent: %w", err)
	}
	if found && known == ex.Rebuttal {
		grade = 1.0
	}

	p.logger.Info("agent graded", "call_id", o.CallID, "grade", grade, "known_best", found)
	return PassResult{Status: StatusGraded, Objection: ex.Objection, Grade: grade}, nil
}

func (p *Processor) determineOutcome(ctx context.Context, transcript string) (Result, error) {
	raw, err := p.llm.GenerateJSON(ctx, fmt.Sprintf(outcomePrompt, transcript))
	if err != nil {
		return "", err
	}

	var verdict struct {
		Outcome    string  `json:"outcome"`
		Confidence float64 `json:"confidence"`
		Reason     string  `json:"reason"`
	}
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		p.logger.Warn("could not parse outcome verdict, defaulting to lost", "error", err, "raw", raw)
		return ResultLostDeal, nil
	}
	if verdict.Outcome == string(ResultClosedDeal) {
		return ResultClosedDeal, nil
	}
	return ResultLostDeal, nil
}
