// Package skills persists objection/rebuttal pairs learned from winning
// calls and serves top-k vector-similarity retrieval over them.
package skills

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/riverline-ai/refinery/internal/store"
)

// ErrDimensionMismatch indicates a query embedding and a stored embedding
// have different dimensionality. Vectors are never truncated or padded.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// DefaultTopK is the number of matches Search returns when the caller does
// not specify k.
const DefaultTopK = 3

const keyPrefix = "skill:"

// Embedder is the embedding oracle: text to a fixed-length dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store is the skill store. All durable state lives in the injected KV;
// Store itself holds no mutable in-process state.
type Store struct {
	kv       store.KV
	embedder Embedder
	logger   *slog.Logger
}

func New(kv store.KV, embedder Embedder, logger *slog.Logger) *Store {
	return &Store{kv: kv, embedder: embedder, logger: logger}
}

// Key derives the storage key for a trigger: a content hash, so the same
// objection text always lands on the same slot and a repeat write overwrites.
func Key(trigger string) string {
	sum := sha256.Sum256([]byte(trigger))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Store embeds the trigger and writes the skill record under its derived
// key, overwriting any existing record. The embedding is fetched before
// anything is written, so an oracle failure never leaves a partial record.
func (s *Store) Store(ctx context.Context, trigger, rebuttal string) (string, error) {
	vec, err := s.embedder.Embed(ctx, trigger)
	if err != nil {
		return "", fmt.Errorf("embed trigger: %w", err)
	}

	key := Key(trigger)
	fields := map[string]string{
		"trigger":  trigger,
		"rebuttal": rebuttal,
		"vector":   string(PackVector(vec)),
		"dims":     strconv.Itoa(len(vec)),
	}
	if err := s.kv.HSet(ctx, key, fields); err != nil {
		return "", fmt.Errorf("write skill: %w", err)
	}

	s.logger.Info("skill stored", "key", key, "trigger_len", len(trigger), "dims", len(vec))
	return key, nil
}

// Match is one retrieval hit.
type Match struct {
	Trigger  string  `json:"trigger"`
	Rebuttal string  `json:"rebuttal"`
	Score    float64 `json:"score"`
}

// Search embeds the query and scans every stored skill, scoring each by
// cosine similarity. Returns the k best matches in descending score order;
// an empty corpus yields an empty result, not an error. The scan is
// deliberately brute-force: the corpus is hundreds of skills, not millions.
func (s *Store) Search(ctx context.Context, query string, k int) ([]Match, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	keys, err := s.kv.Keys(ctx, keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("enumerate skills: %w", err)
	}

	var matches []Match
	for _, key := range keys {
		record, err := s.kv.HGetAll(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("read skill %s: %w", key, err)
		}
		if len(record) == 0 {
			continue
		}

		vec, err := UnpackVector([]byte(record["vector"]))
		if err != nil {
			s.logger.Warn("skipping corrupt skill vector", "key", key, "error", err)
			continue
		}
		dims, err := strconv.Atoi(record["dims"])
		if err != nil || dims != len(vec) {
			s.logger.Warn("skipping skill with inconsistent dims", "key", key, "dims", record["dims"], "vector_len", len(vec))
			continue
		}
		if dims != len(queryVec) {
			return nil, fmt.Errorf("query has %d dims, skill %s has %d: %w", len(queryVec), key, dims, ErrDimensionMismatch)
		}

		matches = append(matches, Match{
			Trigger:  record["trigger"],
			Rebuttal: record["rebuttal"],
			Score:    CosineSimilarity(queryVec, vec),
		})
	}

	// Stable sort keeps key-enumeration order for ties.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Known returns the stored rebuttal for an exact trigger, if one exists.
// Used to grade AI agents against the known best response.
func (s *Store) Known(ctx context.Context, trigger string) (string, bool, error) {
	rebuttal, found, err := s.kv.HGet(ctx, Key(trigger), "rebuttal")
	if err != nil {
		return "", false, fmt.Errorf("read known rebuttal: %w", err)
	}
	return rebuttal, found, nil
}
