package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/riverline-ai/refinery/internal/optimizer"
)

// CallCompletedEvent is the payload published by the call-handling layer
// when a call tears down.
type CallCompletedEvent struct {
	CallID     string           `json:"call_id"`
	Transcript []optimizer.Turn `json:"transcript"`
	Origin     string           `json:"origin"`
	Result     string           `json:"result,omitempty"`
	Country    string           `json:"country"`
	Industry   string           `json:"industry"`
}

// Consumer runs one learning pass per completed-call event. Retries are
// applied here, at the caller level; the processor itself never retries.
type Consumer struct {
	client  *Client
	proc    *optimizer.Processor
	logger  *slog.Logger
	retries uint64
}

func NewConsumer(client *Client, proc *optimizer.Processor, retries int, logger *slog.Logger) *Consumer {
	if retries < 0 {
		retries = 0
	}
	return &Consumer{client: client, proc: proc, logger: logger, retries: uint64(retries)}
}

// Start subscribes to completed-call events.
func (c *Consumer) Start() error {
	return c.client.Subscribe(SubjectCallCompleted, c.handleCallCompleted)
}

func (c *Consumer) handleCallCompleted(subject string, data []byte) {
	ctx := context.Background()

	var evt CallCompletedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		c.logger.Error("failed to parse call completed event", "error", err)
		return
	}

	callID := uuid.New()
	if evt.CallID != "" {
		parsed, err := uuid.Parse(evt.CallID)
		if err != nil {
			c.logger.Error("invalid call id", "call_id", evt.CallID, "error", err)
			return
		}
		callID = parsed
	}

	outcome := optimizer.Outcome{
		CallID:     callID,
		Transcript: evt.Transcript,
		Origin:     optimizer.Origin(evt.Origin),
		Result:     optimizer.Result(evt.Result),
		Country:    evt.Country,
		Industry:   evt.Industry,
	}

	c.logger.Info("processing call outcome",
		"call_id", callID,
		"origin", evt.Origin,
		"result", evt.Result,
		"country", evt.Country,
		"industry", evt.Industry,
	)

	// The pass is built from idempotent writes (content-hash overwrite,
	// append-tolerant corpus, whole-value deploy), so re-running a failed
	// pass is safe.
	var res optimizer.PassResult
	backoff := retry.WithMaxRetries(c.retries, retry.NewExponential(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := c.proc.Process(ctx, outcome)
		if err != nil {
			return retry.RetryableError(err)
		}
		res = r
		return nil
	})
	if err != nil {
		// A failed learning pass must never take down call handling.
		c.logger.Error("learning pass failed", "call_id", callID, "error", err)
		return
	}

	c.publishResult(outcome, res)
}

func (c *Consumer) publishResult(o optimizer.Outcome, res optimizer.PassResult) {
	var subject string
	payload := map[string]any{
		"call_id":  o.CallID.String(),
		"country":  o.Country,
		"industry": o.Industry,
	}

	switch res.Status {
	case optimizer.StatusSkillLearned:
		subject = SubjectSkillLearned
		payload["objection"] = res.Objection
		payload["rebuttal"] = res.Rebuttal
	case optimizer.StatusPromptDeployed:
		subject = SubjectPromptDeployed
		payload["score"] = res.Score
	case optimizer.StatusPromptDiscarded:
		subject = SubjectPromptDiscarded
		payload["score"] = res.Score
	case optimizer.StatusGraded:
		subject = SubjectAgentGraded
		payload["grade"] = res.Grade
	default:
		return
	}

	if err := c.client.Publish(subject, payload); err != nil {
		c.logger.Error("failed to publish learning result", "subject", subject, "error", err)
	}
}
