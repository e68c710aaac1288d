package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/glewis05/configurations-toolkit/internal/domain"
	"github.com/glewis05/configurations-toolkit/internal/platform/logger"
	"github.com/glewis05/configurations-toolkit/internal/store"
)

// PropagationResult reports a fleet-wide push: how many children received
// the value and how many were left alone because they had deliberately
// diverged.
type PropagationResult struct {
	Updated    int      `json:"updated"`
	Skipped    int      `json:"skipped"`
	SkippedIDs []string `json:"skipped_ids,omitempty"`
}

// Propagator pushes a value down the hierarchy, one child at a time,
// respecting existing explicit rows unless forced.
type Propagator struct {
	hierarchy store.HierarchyStore
	values    store.ValueStore
	mutator   *Mutator
	logger    *slog.Logger
}

// NewPropagator creates a new Propagator.
// It returns an error if any of the required dependencies are nil.
func NewPropagator(
	hierarchy store.HierarchyStore,
	values store.ValueStore,
	mutator *Mutator,
	logger *slog.Logger,
) (*Propagator, error) {
	if hierarchy == nil {
		return nil, NewConfigServiceError("new_propagator", "hierarchy store cannot be nil", nil)
	}
	if values == nil {
		return nil, NewConfigServiceError("new_propagator", "values store cannot be nil", nil)
	}
	if mutator == nil {
		return nil, NewConfigServiceError("new_propagator", "mutator cannot be nil", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Propagator{
		hierarchy: hierarchy,
		values:    values,
		mutator:   mutator,
		logger:    logger.With(slog.String("component", "propagator")),
	}, nil
}

// PropagateDown writes the value at clinic level for every clinic under
// the program. Clinics that already hold an explicit clinic-level row are
// skipped unless force is set; skips are counted, not errors. Each target
// write goes through SetValue, so it is audited and override-flagged like
// any other mutation, with source recorded as propagated.
func (p *Propagator) PropagateDown(
	ctx context.Context,
	key, value, programID string,
	force bool,
	changedBy string,
) (*PropagationResult, error) {
	log := logger.FromContextOrDefault(ctx, p.logger)

	// An unknown program must fail, not fan out over zero clinics.
	if _, err := p.hierarchy.GetProgram(ctx, programID); err != nil {
		return nil, err
	}

	clinics, err := p.hierarchy.ListClinics(ctx, programID)
	if err != nil {
		return nil, err
	}

	result := &PropagationResult{}
	for _, clinic := range clinics {
		level := domain.ClinicLevel(programID, clinic.ID)

		if !force {
			_, err := p.values.GetAtLevel(ctx, key, level)
			if err == nil {
				result.Skipped++
				result.SkippedIDs = append(result.SkippedIDs, clinic.ID)
				continue
			}
			if !errors.Is(err, store.ErrValueNotFound) {
				return nil, err
			}
		}

		_, err := p.mutator.SetValue(ctx, SetValueParams{
			Key:       key,
			Value:     value,
			Level:     level,
			Source:    domain.SourcePropagated,
			Rationale: "propagated from program level",
			ChangedBy: changedBy,
		})
		if err != nil {
			return nil, NewConfigServiceError("propagate_down", "failed to set value at clinic "+clinic.ID, err)
		}
		result.Updated++
	}

	log.Info("propagation complete",
		slog.String("config_key", key),
		slog.String("program_id", programID),
		slog.Int("updated", result.Updated),
		slog.Int("skipped", result.Skipped))
	return result, nil
}
