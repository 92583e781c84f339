package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/decaylab/churnwatch/internal/circuitbreaker"
	"github.com/decaylab/churnwatch/internal/retry"
)

// ScorePayload is the contract every scoring response must satisfy: one
// JSON object with exactly these five fields. The fallback scorer produces
// the identical shape so downstream code never knows which scorer ran.
type ScorePayload struct {
	ChurnRiskScore          int      `json:"churn_risk_score"`
	DecaySignals            []string `json:"decay_signals"`
	PrimaryConcern          string   `json:"primary_concern"`
	RecommendedIntervention string   `json:"recommended_intervention"`
	Urgency                 string   `json:"urgency"`
}

// ErrCircuitOpen is returned (wrapped in a *ScoringError) when the
// completion circuit is open and no request was attempted.
var ErrCircuitOpen = errors.New("completion circuit open")

// ScoringError reports that the completion service could not produce a
// contract-satisfying payload after all retries. The caller branches to
// the heuristic fallback on this error; it never guesses a score.
type ScoringError struct {
	Attempts int
	Err      error
}

func (e *ScoringError) Error() string {
	if e.Attempts == 0 {
		return fmt.Sprintf("scoring unavailable: %v", e.Err)
	}
	return fmt.Sprintf("scoring failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ScoringError) Unwrap() error { return e.Err }

// Consecutive exhausted Score calls before the circuit trips, and how
// long it stays open before probing again.
const (
	breakerKey       = "completion"
	breakerThreshold = 3
	breakerOpenFor   = 30 * time.Second
)

// Scorer drives the completion client and enforces the response contract.
// A circuit breaker sits in front of the client: after repeated exhausted
// attempts, Score fails fast so batch runs degrade to the heuristic
// instead of paying the full retry backoff per customer.
type Scorer struct {
	client      CompletionClient
	log         *slog.Logger
	breaker     *circuitbreaker.Breaker
	maxAttempts int
	baseDelay   time.Duration
}

// NewScorer creates a scorer. maxAttempts defaults to 3 and the backoff
// base delay to 2 seconds when zero values are passed.
func NewScorer(client CompletionClient, log *slog.Logger, maxAttempts int) *Scorer {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scorer{
		client:      client,
		log:         log.With("component", "scorer"),
		breaker:     circuitbreaker.New(breakerThreshold, breakerOpenFor),
		maxAttempts: maxAttempts,
		baseDelay:   2 * time.Second,
	}
}

// Score submits the prompt, parses and validates the response, and retries
// with exponential backoff on any failure. On exhaustion it returns a
// *ScoringError.
func (s *Scorer) Score(ctx context.Context, prompt string) (*ScorePayload, error) {
	if !s.breaker.Allow(breakerKey) {
		return nil, &ScoringError{Err: ErrCircuitOpen}
	}

	var payload *ScorePayload

	err := retry.Do(ctx, s.maxAttempts, s.baseDelay, func() error {
		raw, err := s.client.Complete(ctx, prompt)
		if err != nil {
			s.log.Warn("completion request failed", "error", err)
			return err
		}

		p, err := ParsePayload(raw)
		if err != nil {
			s.log.Warn("completion response violated contract", "error", err)
			return err
		}

		payload = p
		return nil
	})
	if err != nil {
		s.breaker.RecordFailure(breakerKey)
		return nil, &ScoringError{Attempts: s.maxAttempts, Err: err}
	}

	s.breaker.RecordSuccess(breakerKey)
	return payload, nil
}

// ParsePayload extracts and validates the five-field JSON object from raw
// response text, stripping any code-fence wrapping first. The risk score is
// clamped into [0,100].
func ParsePayload(raw string) (*ScorePayload, error) {
	text := StripCodeFences(raw)

	// Decode into a map first so a missing field is distinguishable from a
	// zero value.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}

	for _, required := range []string{
		"churn_risk_score", "decay_signals", "primary_concern",
		"recommended_intervention", "urgency",
	} {
		if _, ok := fields[required]; !ok {
			return nil, fmt.Errorf("response missing required field %q", required)
		}
	}

	var score float64
	if err := json.Unmarshal(fields["churn_risk_score"], &score); err != nil {
		return nil, fmt.Errorf("churn_risk_score is not numeric: %w", err)
	}

	var signals []string
	if err := json.Unmarshal(fields["decay_signals"], &signals); err != nil {
		return nil, fmt.Errorf("decay_signals is not an array of strings: %w", err)
	}

	p := &ScorePayload{
		ChurnRiskScore: clampScore(score),
		DecaySignals:   signals,
	}
	if err := json.Unmarshal(fields["primary_concern"], &p.PrimaryConcern); err != nil {
		return nil, fmt.Errorf("primary_concern is not a string: %w", err)
	}
	if err := json.Unmarshal(fields["recommended_intervention"], &p.RecommendedIntervention); err != nil {
		return nil, fmt.Errorf("recommended_intervention is not a string: %w", err)
	}
	if err := json.Unmarshal(fields["urgency"], &p.Urgency); err != nil {
		return nil, fmt.Errorf("urgency is not a string: %w", err)
	}

	switch p.Urgency {
	case "low", "medium", "high", "critical":
	default:
		return nil, fmt.Errorf("urgency %q is not one of low/medium/high/critical", p.Urgency)
	}

	return p, nil
}

// StripCodeFences removes a surrounding markdown code fence, if present
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Language tag on the opening fence, e.g. ```json
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		first := strings.TrimSpace(s[:idx])
		if first == "json" || first == "" {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func clampScore(score float64) int {
	rounded := int(math.Round(score))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}
