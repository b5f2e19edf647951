// Package prompts resolves and persists the active system prompt per
// (country, industry) segment, with a fallback hierarchy down to the global
// base prompt.
package prompts

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/riverline-ai/refinery/internal/store"
)

// ErrNoPromptConfigured means not even the base prompt exists. This is a
// deployment defect, not a transient fault; callers should fail loudly.
var ErrNoPromptConfigured = errors.New("no prompt configured")

// DefaultBasePrompt is written once at startup if no base prompt exists.
const DefaultBasePrompt = "You are a helpful sales agent."

const (
	baseKey       = "prompt:base"
	segmentPrefix = "prompt:segment:"
)

type Registry struct {
	kv store.KV
}

func New(kv store.KV) *Registry {
	return &Registry{kv: kv}
}

func segmentKey(country, industry string) string {
	return segmentPrefix + country + ":" + industry
}

// Resolve returns the first of: the exact segment prompt, any segment prompt
// for the industry under another country, the base prompt. Only a missing
// base prompt is an error.
func (r *Registry) Resolve(ctx context.Context, country, industry string) (string, error) {
	v, found, err := r.kv.Get(ctx, segmentKey(country, industry))
	if err != nil {
		return "", fmt.Errorf("resolve segment prompt: %w", err)
	}
	if found {
		return v, nil
	}

	// Industry fallback: any country serving the same industry.
	keys, err := r.kv.Keys(ctx, segmentPrefix+"*:"+industry)
	if err != nil {
		return "", fmt.Errorf("scan industry prompts: %w", err)
	}
	sort.Strings(keys)
	for _, key := range keys {
		v, found, err := r.kv.Get(ctx, key)
		if err != nil {
			return "", fmt.Errorf("resolve industry prompt: %w", err)
		}
		if found {
			return v, nil
		}
	}

	return r.Base(ctx)
}

// Deploy replaces the segment prompt wholesale. No history is kept.
func (r *Registry) Deploy(ctx context.Context, country, industry, text string) error {
	if err := r.kv.Set(ctx, segmentKey(country, industry), text); err != nil {
		return fmt.Errorf("deploy segment prompt: %w", err)
	}
	return nil
}

// Base returns the global fallback prompt.
func (r *Registry) Base(ctx context.Context) (string, error) {
	v, found, err := r.kv.Get(ctx, baseKey)
	if err != nil {
		return "", fmt.Errorf("resolve base prompt: %w", err)
	}
	if !found {
		return "", ErrNoPromptConfigured
	}
	return v, nil
}

// SetBase replaces the global fallback prompt.
func (r *Registry) SetBase(ctx context.Context, text string) error {
	if err := r.kv.Set(ctx, baseKey, text); err != nil {
		return fmt.Errorf("set base prompt: %w", err)
	}
	return nil
}
