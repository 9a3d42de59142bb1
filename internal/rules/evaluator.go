package rules

import (
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"

	apperrors "smarena/pkg/errors"
	"smarena/pkg/metrics"
	"smarena/pkg/models"
	"smarena/pkg/tracing"
)

// PredicateError means a rule predicate panicked. It is never treated as a non-match.
type PredicateError struct {
	RuleName string
	Err      error
}

func (e *PredicateError) Error() string {
	return fmt.Sprintf("predicate for rule %s failed: %v", e.RuleName, e.Err)
}

func (e *PredicateError) Unwrap() error {
	return e.Err
}

// Evaluator runs an ordered rule chain against one sykmelding at a time.
// It holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	rules []Rule
}

func NewEvaluator(rules []Rule) *Evaluator {
	return &Evaluator{rules: slices.Clone(rules)}
}

// Evaluate returns every matching rule in declaration order and counts each hit.
// Counters are only touched once the whole chain has evaluated without error.
func (e *Evaluator) Evaluate(ctx context.Context, sykmelding models.Sykmelding, metadata Metadata) ([]Rule, error) {
	_, span := tracing.GetTracer("rules").Start(ctx, "rules.evaluate")
	defer span.End()

	hits, err := e.match(sykmelding, metadata)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	for _, rule := range hits {
		metrics.IncRuleHit(rule.Name)
	}

	span.SetAttributes(attribute.StringSlice("rules.hits", Names(hits)))
	return hits, nil
}

// Validate evaluates the chain without touching counters and reports the hits.
func (e *Evaluator) Validate(ctx context.Context, sykmelding models.Sykmelding, metadata Metadata) (models.ValidationResult, error) {
	_, span := tracing.GetTracer("rules").Start(ctx, "rules.validate")
	defer span.End()

	hits, err := e.match(sykmelding, metadata)
	if err != nil {
		span.RecordError(err)
		return models.ValidationResult{}, err
	}

	ruleHits := make([]models.RuleInfo, 0, len(hits))
	for _, rule := range hits {
		ruleHits = append(ruleHits, models.RuleInfo{RuleName: rule.Name})
	}

	// the chain has no rule that invalidates a record
	return models.ValidationResult{
		Status:   models.StatusOK,
		RuleHits: ruleHits,
	}, nil
}

func (e *Evaluator) match(sykmelding models.Sykmelding, metadata Metadata) ([]Rule, error) {
	hits := make([]Rule, 0, len(e.rules))
	for _, rule := range e.rules {
		matched, err := applyPredicate(rule, sykmelding, metadata)
		if err != nil {
			return nil, err
		}
		if matched {
			hits = append(hits, rule)
		}
	}
	return hits, nil
}

func applyPredicate(rule Rule, sykmelding models.Sykmelding, metadata Metadata) (matched bool, err error) {
	if rule.Predicate == nil {
		return false, &PredicateError{RuleName: rule.Name, Err: fmt.Errorf("rule has no predicate")}
	}

	defer func() {
		if r := recover(); r != nil {
			matched = false
			err = &PredicateError{RuleName: rule.Name, Err: apperrors.RecoverPanic(r)}
		}
	}()

	return rule.Predicate(sykmelding, metadata), nil
}
