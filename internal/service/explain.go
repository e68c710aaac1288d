package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/glewis05/configurations-toolkit/internal/domain"
	"github.com/glewis05/configurations-toolkit/internal/store"
)

// ChainEntry is one tier of an inheritance chain: what that tier stores
// for the key, or its absence. Effective marks the tier that resolution
// actually selects.
type ChainEntry struct {
	Level     domain.LevelKind `json:"level"`
	LevelID   string           `json:"level_id,omitempty"`
	Value     string           `json:"value,omitempty"`
	HasValue  bool             `json:"has_value"`
	Effective bool             `json:"effective"`
}

// TreeNode is one hierarchy node of an inheritance tree, annotated with
// the key's effective value there and whether the node overrides its
// immediate parent.
type TreeNode struct {
	Level      domain.LevelKind `json:"level"`
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Value      string           `json:"value,omitempty"`
	Found      bool             `json:"found"`
	ValueLevel domain.LevelKind `json:"value_level,omitempty"`
	IsOverride bool             `json:"is_override"`
	Children   []*TreeNode      `json:"children,omitempty"`
}

// Explainer answers "where did this value come from" questions. Pure
// read-side consumer of the resolver and the stores.
type Explainer struct {
	hierarchy   store.HierarchyStore
	definitions store.DefinitionStore
	values      store.ValueStore
	resolver    *Resolver
	logger      *slog.Logger
}

// NewExplainer creates a new Explainer.
// It returns an error if any of the required dependencies are nil.
func NewExplainer(
	hierarchy store.HierarchyStore,
	definitions store.DefinitionStore,
	values store.ValueStore,
	resolver *Resolver,
	logger *slog.Logger,
) (*Explainer, error) {
	if hierarchy == nil {
		return nil, NewConfigServiceError("new_explainer", "hierarchy store cannot be nil", nil)
	}
	if definitions == nil {
		return nil, NewConfigServiceError("new_explainer", "definitions store cannot be nil", nil)
	}
	if values == nil {
		return nil, NewConfigServiceError("new_explainer", "values store cannot be nil", nil)
	}
	if resolver == nil {
		return nil, NewConfigServiceError("new_explainer", "resolver cannot be nil", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Explainer{
		hierarchy:   hierarchy,
		definitions: definitions,
		values:      values,
		resolver:    resolver,
		logger:      logger.With(slog.String("component", "explainer")),
	}, nil
}

// ExplainChain lists every tier that could contribute to the key at the
// given node, least specific first: catalog default, program, then clinic
// and location when the node names them. Each entry carries the tier's
// stored value or its absence, and exactly one entry with a value is
// marked effective.
func (e *Explainer) ExplainChain(ctx context.Context, key string, level domain.Level) ([]ChainEntry, error) {
	if err := level.Validate(); err != nil {
		return nil, err
	}

	chain := []ChainEntry{}

	def, err := e.definitions.GetByKey(ctx, key)
	if err != nil && !errors.Is(err, store.ErrDefinitionNotFound) {
		return nil, err
	}
	defaultEntry := ChainEntry{Level: domain.LevelDefault}
	if def != nil && def.HasDefault() {
		defaultEntry.Value = def.DefaultValue
		defaultEntry.HasValue = true
	}
	chain = append(chain, defaultEntry)

	// Candidates() walks most specific first; the chain reads the other way.
	candidates := level.Candidates()
	for i := len(candidates) - 1; i >= 0; i-- {
		tier := candidates[i]
		entry := ChainEntry{Level: tier.Kind(), LevelID: tierID(tier)}
		row, err := e.values.GetAtLevel(ctx, key, tier)
		switch {
		case err == nil:
			entry.Value = row.Value
			entry.HasValue = true
		case !errors.Is(err, store.ErrValueNotFound):
			return nil, err
		}
		chain = append(chain, entry)
	}

	// The most specific tier holding a value is the effective one.
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].HasValue {
			chain[i].Effective = true
			break
		}
	}
	return chain, nil
}

// BuildTree expands every clinic and location under the program and
// resolves the key at each node. Each node reports the tier its value
// came from and whether it overrides what its immediate parent supplies.
func (e *Explainer) BuildTree(ctx context.Context, key, programID string) (*TreeNode, error) {
	program, err := e.hierarchy.GetProgram(ctx, programID)
	if err != nil {
		return nil, err
	}

	programLevel := domain.ProgramLevel(programID)
	programEff, err := e.resolver.ResolveOne(ctx, key, programLevel)
	if err != nil {
		return nil, err
	}
	root := &TreeNode{
		Level:      domain.LevelProgram,
		ID:         program.ID,
		Name:       program.Name,
		Value:      programEff.Value,
		Found:      programEff.Found,
		ValueLevel: programEff.Level,
		IsOverride: programEff.Level == domain.LevelProgram && programEff.IsOverride,
	}

	clinics, err := e.hierarchy.ListClinics(ctx, programID)
	if err != nil {
		return nil, err
	}
	for _, clinic := range clinics {
		clinicLevel := domain.ClinicLevel(programID, clinic.ID)
		clinicEff, err := e.resolver.ResolveOne(ctx, key, clinicLevel)
		if err != nil {
			return nil, err
		}
		clinicNode := &TreeNode{
			Level:      domain.LevelClinic,
			ID:         clinic.ID,
			Name:       clinic.Name,
			Value:      clinicEff.Value,
			Found:      clinicEff.Found,
			ValueLevel: clinicEff.Level,
			IsOverride: clinicEff.Level == domain.LevelClinic && clinicEff.Value != programEff.Value,
		}

		locations, err := e.hierarchy.ListLocations(ctx, clinic.ID)
		if err != nil {
			return nil, err
		}
		for _, location := range locations {
			locLevel := domain.LocationLevel(programID, clinic.ID, location.ID)
			locEff, err := e.resolver.ResolveOne(ctx, key, locLevel)
			if err != nil {
				return nil, err
			}
			clinicNode.Children = append(clinicNode.Children, &TreeNode{
				Level:      domain.LevelLocation,
				ID:         location.ID,
				Name:       location.Name,
				Value:      locEff.Value,
				Found:      locEff.Found,
				ValueLevel: locEff.Level,
				IsOverride: locEff.Level == domain.LevelLocation && locEff.Value != clinicEff.Value,
			})
		}
		root.Children = append(root.Children, clinicNode)
	}
	return root, nil
}

// RenderTree writes an inheritance tree as indented text, one node per
// line, overrides marked with an asterisk.
func RenderTree(node *TreeNode) string {
	var b strings.Builder
	renderNode(&b, node, 0)
	return b.String()
}

func renderNode(b *strings.Builder, node *TreeNode, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	marker := ""
	if node.IsOverride {
		marker = " *"
	}
	value := node.Value
	if !node.Found {
		value = "(not set)"
	}
	fmt.Fprintf(b, "%s %s: %s%s\n", node.Level, node.Name, value, marker)
	for _, child := range node.Children {
		renderNode(b, child, depth+1)
	}
}

// tierID names the node a chain entry describes.
func tierID(level domain.Level) string {
	switch level.Kind() {
	case domain.LevelLocation:
		return level.LocationID
	case domain.LevelClinic:
		return level.ClinicID
	default:
		return level.ProgramID
	}
}
