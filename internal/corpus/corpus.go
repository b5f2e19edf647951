// Package corpus maintains the evaluation dataset candidate prompts are
// scored against: a seed set plus one case per learned skill.
package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/riverline-ai/refinery/internal/store"
)

const listKey = "test_cases:list"

// Case is one evaluation sample. Target describes the expected approach,
// not a literal expected response; scoring is judged, not matched.
type Case struct {
	Input  string `json:"input"`
	Target string `json:"target"`
}

var defaultCases = []Case{
	{Input: "Hello, who are you?", Target: "I am a sales representative"},
	{Input: "It is too expensive.", Target: "Value proposition and ROI"},
	{Input: "I need to think about it.", Target: "Address hesitation with urgency"},
}

type Manager struct {
	kv     store.KV
	logger *slog.Logger
}

func New(kv store.KV, logger *slog.Logger) *Manager {
	return &Manager{kv: kv, logger: logger}
}

// SeedDefaults installs the baseline cases if the corpus does not exist yet.
// The check is existence-based, so seeding after an external flush can add
// the baseline again; duplicates are tolerated by design.
func (m *Manager) SeedDefaults(ctx context.Context) error {
	exists, err := m.kv.Exists(ctx, listKey)
	if err != nil {
		return fmt.Errorf("check corpus: %w", err)
	}
	if exists {
		return nil
	}

	for _, c := range defaultCases {
		payload, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal seed case: %w", err)
		}
		if err := m.kv.RPush(ctx, listKey, string(payload)); err != nil {
			return fmt.Errorf("seed corpus: %w", err)
		}
	}

	m.logger.Info("seeded default test cases", "count", len(defaultCases))
	return nil
}

// AddFromSkill appends one case derived from a newly learned skill. The
// corpus is append-only; nothing is deduplicated.
func (m *Manager) AddFromSkill(ctx context.Context, input, target string) error {
	payload, err := json.Marshal(Case{Input: input, Target: target})
	if err != nil {
		return fmt.Errorf("marshal test case: %w", err)
	}
	if err := m.kv.RPush(ctx, listKey, string(payload)); err != nil {
		return fmt.Errorf("append test case: %w", err)
	}
	m.logger.Info("test case added", "input_len", len(input))
	return nil
}

// All returns the full corpus in append order. Evaluation always runs every
// case; there is no filtering or sampling.
func (m *Manager) All(ctx context.Context) ([]Case, error) {
	items, err := m.kv.LRange(ctx, listKey)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	cases := make([]Case, 0, len(items))
	for _, item := range items {
		var c Case
		if err := json.Unmarshal([]byte(item), &c); err != nil {
			return nil, fmt.Errorf("parse test case: %w", err)
		}
		cases = append(cases, c)
	}
	return cases, nil
}
