// Package correction drives the regeneration loop that turns a raw SQL
// candidate into a validated query, or a diagnosable failure.
//
// Each attempt normalizes the current candidate, runs every validator, and
// either accepts, repairs, or asks the regenerator for a new candidate with
// the full diagnostic set. The loop is bounded: it always terminates within
// MaxAttempts, and a caller cancellation is honored between attempts.
package correction

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aysualkaya/assistant/internal/errs"
	"github.com/aysualkaya/assistant/internal/logger"
	"github.com/aysualkaya/assistant/internal/normalize"
	"github.com/aysualkaya/assistant/internal/rules"
	"github.com/aysualkaya/assistant/internal/validate"
)

const (
	// DefaultMaxAttempts bounds the correction loop.
	DefaultMaxAttempts = 3

	// DefaultRegenTimeout bounds one regenerator call. A timeout consumes
	// the attempt it was made under.
	DefaultRegenTimeout = 5 * time.Second
)

// Regenerator produces a fresh SQL candidate from the question, the
// previous candidate, and the diagnostics that rejected it.
type Regenerator interface {
	Regenerate(ctx context.Context, question, prev string, diagnostics []string) (string, error)
}

// Config tunes one Orchestrator.
type Config struct {
	// MaxAttempts is the attempt budget per session. Zero means
	// DefaultMaxAttempts.
	MaxAttempts int `yaml:"max_attempts"`

	// RegenTimeout bounds each regenerator call. Zero means
	// DefaultRegenTimeout.
	RegenTimeout time.Duration `yaml:"regen_timeout"`

	// AutoRepair applies single-suggestion fixes textually instead of
	// regenerating. Repaired candidates are re-validated like any other.
	AutoRepair bool `yaml:"auto_repair"`
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RegenTimeout <= 0 {
		c.RegenTimeout = DefaultRegenTimeout
	}
	return c
}

// Orchestrator runs the correction loop over a fixed validator set.
type Orchestrator struct {
	norm       *normalize.Normalizer
	structural *validate.StructuralValidator
	usage      *validate.TableUsageValidator
	engine     *rules.Engine
	regen      Regenerator
	cfg        Config
	log        *logger.Logger
}

// New creates an Orchestrator. engine may be nil to skip rule evaluation.
func New(norm *normalize.Normalizer, structural *validate.StructuralValidator, usage *validate.TableUsageValidator, engine *rules.Engine, regen Regenerator, cfg Config) *Orchestrator {
	return &Orchestrator{
		norm:       norm,
		structural: structural,
		usage:      usage,
		engine:     engine,
		regen:      regen,
		cfg:        cfg.withDefaults(),
		log:        logger.New(logger.DefaultConfig()),
	}
}

// WithLogger replaces the orchestrator's logger.
func (o *Orchestrator) WithLogger(log *logger.Logger) *Orchestrator {
	o.log = log
	return o
}

// Run executes the correction loop for one candidate. The returned Session
// is always populated; on error its last candidate must not be executed.
func (o *Orchestrator) Run(ctx context.Context, question, candidate string) (FinalQuery, *Session, error) {
	sess := newSession(question)
	log := o.log.With().Str("session", sess.ID).Logger()

	cand := candidate
	repaired := false

	for n := 1; n <= o.cfg.MaxAttempts; n++ {
		if err := ctx.Err(); err != nil {
			sess.State = StateCancelled
			return FinalQuery{}, sess, errs.Wrap(errs.ErrKindCancelled, "correction cancelled", err)
		}

		sess.State = StateNormalizing
		nres := o.norm.Normalize(cand)

		sess.State = StateValidating
		findings := o.validateAll(nres.Text)

		sess.Attempts = append(sess.Attempts, Attempt{
			Number:     n,
			Candidate:  cand,
			Normalized: nres.Text,
			Notes:      nres.Notes,
			Findings:   findings,
			Repaired:   repaired,
		})
		repaired = false

		if findings.Valid() {
			sess.State = StateAccepted
			log.With().Int("attempts", n).Logger().Info("query accepted")
			return FinalQuery{Text: nres.Text, NormalizationNotes: nres.Notes}, sess, nil
		}
		log.With().Int("attempt", n).Int("findings", len(findings.Errors)).Logger().Debug("candidate rejected")

		if n == o.cfg.MaxAttempts {
			break
		}

		if o.cfg.AutoRepair {
			if fixed, ok := applyRepairs(nres.Text, findings); ok {
				cand = fixed
				repaired = true
				continue
			}
		}

		sess.State = StateRegenerating
		next, err := o.regenerate(ctx, question, nres.Text, findings.Messages())
		if err != nil {
			if ctx.Err() != nil {
				sess.State = StateCancelled
				return FinalQuery{}, sess, errs.Wrap(errs.ErrKindCancelled, "correction cancelled", ctx.Err())
			}
			// The failed call consumed this attempt; the next one retries
			// from the same candidate.
			log.With().Int("attempt", n).Err(err).Logger().Warn("regeneration failed")
			continue
		}
		cand = next
	}

	sess.State = StateExhausted
	if a := sess.last(); a != nil {
		log.With().Int("attempts", len(sess.Attempts)).Int("findings", len(a.Findings.Errors)).Logger().Warn("attempt budget exhausted")
	}
	return FinalQuery{}, sess, errs.New(errs.ErrKindRetryExhausted,
		fmt.Sprintf("no valid query after %d attempts", o.cfg.MaxAttempts))
}

func (o *Orchestrator) validateAll(sql string) validate.Result {
	results := []validate.Result{
		o.structural.Validate(sql),
		o.usage.Validate(sql),
	}
	if o.engine != nil {
		results = append(results, o.engine.Validate(sql))
	}
	return validate.Merge(results...)
}

func (o *Orchestrator) regenerate(ctx context.Context, question, prev string, diagnostics []string) (string, error) {
	rctx, cancel := context.WithTimeout(ctx, o.cfg.RegenTimeout)
	defer cancel()

	next, err := o.regen.Regenerate(rctx, question, prev, diagnostics)
	if err != nil {
		if rctx.Err() == context.DeadlineExceeded {
			return "", errs.Wrap(errs.ErrKindTimeout, "regeneration timed out", err)
		}
		return "", errs.Wrap(errs.ErrKindRegeneration, "regeneration failed", err)
	}
	if strings.TrimSpace(next) == "" {
		return "", errs.New(errs.ErrKindRegeneration, "regenerator returned an empty candidate")
	}
	return next, nil
}

// applyRepairs rewrites sql with the validators' suggestions. It succeeds
// only when every finding carries exactly one unambiguous suggestion and a
// span; any tie or suggestion-free finding declines the whole pass, since a
// partial repair would burn an attempt on a candidate known to be invalid.
func applyRepairs(sql string, findings validate.Result) (string, bool) {
	for _, e := range findings.Errors {
		if e.Suggestion == "" || len(e.Candidates) > 0 || e.Span == nil {
			return "", false
		}
	}

	// Apply right to left so earlier spans stay valid.
	errsByPos := make([]validate.Error, len(findings.Errors))
	copy(errsByPos, findings.Errors)
	sort.Slice(errsByPos, func(i, j int) bool {
		return errsByPos[i].Span.Start > errsByPos[j].Span.Start
	})

	out := sql
	for _, e := range errsByPos {
		if e.Span.Start < 0 || e.Span.End > len(out) || e.Span.Start >= e.Span.End {
			return "", false
		}
		segment := out[e.Span.Start:e.Span.End]
		fixed := strings.Replace(segment, e.Ident, e.Suggestion, 1)
		if fixed == segment {
			return "", false
		}
		out = out[:e.Span.Start] + fixed + out[e.Span.End:]
	}
	return out, true
}
