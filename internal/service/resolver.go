package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/glewis05/configurations-toolkit/internal/domain"
	"github.com/glewis05/configurations-toolkit/internal/platform/logger"
	"github.com/glewis05/configurations-toolkit/internal/store"
)

// Resolver computes effective configuration values across the hierarchy.
// Read-only: it never writes and requires no transaction.
type Resolver struct {
	definitions store.DefinitionStore
	values      store.ValueStore
	logger      *slog.Logger
}

// NewResolver creates a new Resolver.
// It returns an error if any of the required dependencies are nil.
func NewResolver(
	definitions store.DefinitionStore,
	values store.ValueStore,
	logger *slog.Logger,
) (*Resolver, error) {
	if definitions == nil {
		return nil, NewConfigServiceError("new_resolver", "definitions store cannot be nil", nil)
	}
	if values == nil {
		return nil, NewConfigServiceError("new_resolver", "values store cannot be nil", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		definitions: definitions,
		values:      values,
		logger:      logger.With(slog.String("component", "resolver")),
	}, nil
}

// ResolveOne computes the effective value of one key at one hierarchy node.
// Candidates are probed most specific first (location, clinic, program);
// the first explicit row wins. With no row at any tier the catalog default
// applies, and with no default the result is the null EffectiveValue. The
// returned Level always names the tier that actually supplied the value.
func (r *Resolver) ResolveOne(ctx context.Context, key string, level domain.Level) (domain.EffectiveValue, error) {
	if err := level.Validate(); err != nil {
		return domain.EffectiveValue{}, err
	}

	for _, candidate := range level.Candidates() {
		v, err := r.values.GetAtLevel(ctx, key, candidate)
		if err == nil {
			return domain.FromValue(v), nil
		}
		if !errors.Is(err, store.ErrValueNotFound) {
			return domain.EffectiveValue{}, err
		}
	}

	def, err := r.definitions.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrDefinitionNotFound) {
			return domain.NotFound(key), nil
		}
		return domain.EffectiveValue{}, err
	}
	if !def.HasDefault() {
		return domain.NotFound(key), nil
	}
	return domain.FromDefault(key, def.DefaultValue), nil
}

// ResolveAll computes effective values for every key in the catalog at one
// hierarchy node in two store round trips instead of one per key: the full
// definition list, then every value row whose program matches and whose
// clinic/location columns are null or equal to the node's IDs. Rows are
// grouped by key, the most specific tier wins, and keys with no row fall
// back to their catalog default. The result is identical to calling
// ResolveOne per key.
func (r *Resolver) ResolveAll(ctx context.Context, level domain.Level) (map[string]domain.EffectiveValue, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	if err := level.Validate(); err != nil {
		return nil, err
	}

	defs, err := r.definitions.List(ctx)
	if err != nil {
		return nil, NewConfigServiceError("resolve_all", "failed to list definitions", err)
	}

	rows, err := r.values.ListForResolution(ctx, level)
	if err != nil {
		return nil, NewConfigServiceError("resolve_all", "failed to list value rows", err)
	}

	// Most specific row per key. Candidate tiers for the node, most
	// specific first, decide which of two rows for the same key wins.
	rank := levelRank(level)
	best := make(map[string]*domain.ConfigValue, len(rows))
	for _, row := range rows {
		rowRank, ok := rank[row.Level]
		if !ok {
			continue
		}
		current, exists := best[row.Key]
		if !exists || rowRank < rank[current.Level] {
			best[row.Key] = row
		}
	}

	results := make(map[string]domain.EffectiveValue, len(defs)+len(best))
	for _, def := range defs {
		if row, ok := best[def.Key]; ok {
			results[def.Key] = domain.FromValue(row)
			continue
		}
		if def.HasDefault() {
			results[def.Key] = domain.FromDefault(def.Key, def.DefaultValue)
		} else {
			results[def.Key] = domain.NotFound(def.Key)
		}
	}
	// Unregistered keys with stored rows still resolve; forward drift is
	// tolerated on reads the same way it is on writes.
	for key, row := range best {
		if _, ok := results[key]; !ok {
			results[key] = domain.FromValue(row)
		}
	}

	log.Debug("resolved all keys",
		slog.String("program_id", level.ProgramID),
		slog.String("level", string(level.Kind())),
		slog.Int("key_count", len(results)))
	return results, nil
}

// Overrides returns the explicit rows flagged as overrides at one exact
// level, ordered by key.
func (r *Resolver) Overrides(ctx context.Context, level domain.Level) ([]*domain.ConfigValue, error) {
	rows, err := r.values.ListAtLevel(ctx, level)
	if err != nil {
		return nil, err
	}
	overrides := []*domain.ConfigValue{}
	for _, row := range rows {
		if row.IsOverride {
			overrides = append(overrides, row)
		}
	}
	return overrides, nil
}

// levelRank maps each candidate tier of the node to its precedence,
// 0 being most specific.
func levelRank(level domain.Level) map[domain.Level]int {
	rank := make(map[domain.Level]int, 3)
	for i, candidate := range level.Candidates() {
		rank[candidate] = i
	}
	return rank
}
