package conflict

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nameforge/nameforge/internal/metrics"
	"github.com/nameforge/nameforge/pkg/model"
)

// Outcome classifies how a conflict resolution ended.
type Outcome string

const (
	// Accepted: the candidate name is free, no mutation happened.
	Accepted Outcome = "Accepted"
	// AutoResolved: a mutated name was found free.
	AutoResolved Outcome = "AutoResolved"
	// Conflict: the name is taken and the strategy leaves the decision to
	// the caller.
	Conflict Outcome = "Conflict"
	// Rejected: the name is taken and no usable alternative was produced.
	// This is a normal terminal state, not an error.
	Rejected Outcome = "Rejected"
)

// Resolution is the result of applying a conflict strategy to a validated name.
type Resolution struct {
	FinalName string  `json:"finalName,omitempty"`
	Outcome   Outcome `json:"outcome"`
	Reason    string  `json:"reason,omitempty"`
	Attempts  int     `json:"attempts"`
}

// Mutator rewrites a candidate name to dodge a collision.
type Mutator func(name string) string

// RevalidateFunc checks a mutated candidate against the tenant.
type RevalidateFunc func(ctx context.Context, name string) model.ValidationResult

// Resolver applies a configured conflict strategy. Resolve itself is a pure
// function of the inputs; all tenant access goes through the revalidate
// callback.
type Resolver struct {
	logger *zap.Logger

	// MaxIncrementAttempts bounds the AutoIncrement loop.
	MaxIncrementAttempts int
}

// DefaultMaxIncrementAttempts is a deliberately small bound: a namespace
// dense enough to exhaust it calls for a different naming scheme, not a
// longer search.
const DefaultMaxIncrementAttempts = 10

// NewResolver constructs a conflict resolver with the default bounds.
func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{logger: logger, MaxIncrementAttempts: DefaultMaxIncrementAttempts}
}

// Resolve decides what to do with a candidate name given its validation
// result and the configured strategy.
func (r *Resolver) Resolve(ctx context.Context, candidate string, result model.ValidationResult, strategy model.ConflictStrategy, mutate Mutator, revalidate RevalidateFunc) Resolution {
	res := r.resolve(ctx, candidate, result, strategy, mutate, revalidate)
	metrics.IncConflict(string(strategy), string(res.Outcome))
	if res.Outcome != Accepted {
		r.logger.Info("conflict.resolved",
			zap.String("candidate", candidate),
			zap.String("strategy", string(strategy)),
			zap.String("outcome", string(res.Outcome)),
			zap.String("final_name", res.FinalName),
			zap.Int("attempts", res.Attempts))
	}
	return res
}

func (r *Resolver) resolve(ctx context.Context, candidate string, result model.ValidationResult, strategy model.ConflictStrategy, mutate Mutator, revalidate RevalidateFunc) Resolution {
	// A free name is accepted no matter the strategy. This includes results
	// where validation did not run: an unverifiable name is not a conflict.
	if !result.ExistsInAzure {
		return Resolution{FinalName: candidate, Outcome: Accepted}
	}

	switch strategy {
	case model.ConflictNotifyOnly:
		return Resolution{
			FinalName: candidate,
			Outcome:   Conflict,
			Reason:    "name already exists; caller must decide",
		}

	case model.ConflictFail:
		return Resolution{
			Outcome: Rejected,
			Reason:  "name already exists",
		}

	case model.ConflictAutoIncrement:
		return r.mutateLoop(ctx, candidate, mutate, revalidate, r.MaxIncrementAttempts)

	case model.ConflictSuffixRandom:
		// One fresh suffix, then one retry with a new suffix.
		return r.mutateLoop(ctx, candidate, mutate, revalidate, 2)

	default:
		return Resolution{
			Outcome: Rejected,
			Reason:  fmt.Sprintf("unknown conflict strategy %q", strategy),
		}
	}
}

// mutateLoop applies mutate-then-revalidate up to maxAttempts times,
// distinguishing "exhausted attempts" from "validation unavailable" in the
// rejection reason.
func (r *Resolver) mutateLoop(ctx context.Context, candidate string, mutate Mutator, revalidate RevalidateFunc, maxAttempts int) Resolution {
	name := candidate
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		name = mutate(name)
		result := revalidate(ctx, name)
		if !result.ValidationPerformed {
			return Resolution{
				Outcome:  Rejected,
				Reason:   "validation unavailable while resolving conflict",
				Attempts: attempt,
			}
		}
		if !result.ExistsInAzure {
			return Resolution{
				FinalName: name,
				Outcome:   AutoResolved,
				Attempts:  attempt,
			}
		}
	}
	return Resolution{
		Outcome:  Rejected,
		Reason:   fmt.Sprintf("exhausted %d attempts without finding a free name", maxAttempts),
		Attempts: maxAttempts,
	}
}
