package domain

import (
	"errors"
	"time"
)

// ValueSource records how a configuration value entered the store.
type ValueSource string

// Possible value source values
const (
	SourceDefault      ValueSource = "default"
	SourceManual       ValueSource = "manual"
	SourceImport       ValueSource = "import"
	SourcePropagated   ValueSource = "propagated"
	SourceClinicPortal ValueSource = "clinic_portal"
)

// Common validation errors for ConfigValue
var (
	ErrInvalidValueSource = errors.New("invalid value source")
)

// ConfigValue is one explicitly set value, pinned to exactly one hierarchy
// tier by its Level. At most one row exists per (key, level) pair; repeated
// writes at the same level replace the value and bump the version counter.
type ConfigValue struct {
	ID             int64       `json:"id"`
	Key            string      `json:"key"`
	Level          Level       `json:"level"`
	Value          string      `json:"value"`
	IsOverride     bool        `json:"is_override"`
	Source         ValueSource `json:"source"`
	SourceDocument string      `json:"source_document,omitempty"`
	Rationale      string      `json:"rationale,omitempty"`
	Version        int         `json:"version"`
	CreatedBy      string      `json:"created_by"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Validate checks if the ConfigValue has valid data.
func (v *ConfigValue) Validate() error {
	if v.Key == "" {
		return ErrEmptyConfigKey
	}
	if err := v.Level.Validate(); err != nil {
		return err
	}
	if !isValidValueSource(v.Source) {
		return ErrInvalidValueSource
	}
	return nil
}

func isValidValueSource(s ValueSource) bool {
	switch s {
	case SourceDefault, SourceManual, SourceImport, SourcePropagated, SourceClinicPortal:
		return true
	default:
		return false
	}
}

// EffectiveValue is the outcome of resolving one key at one hierarchy node.
// Level reports the most specific tier that actually held an explicit row
// (LevelDefault for catalog fallback, empty when nothing was found), so
// inheritance is transparent to the caller.
type EffectiveValue struct {
	Key            string      `json:"key"`
	Value          string      `json:"value,omitempty"`
	Found          bool        `json:"found"`
	Level          LevelKind   `json:"level,omitempty"`
	IsOverride     bool        `json:"is_override"`
	Source         ValueSource `json:"source,omitempty"`
	SourceDocument string      `json:"source_document,omitempty"`
	Rationale      string      `json:"rationale,omitempty"`
}

// FromValue builds the EffectiveValue view of an explicit stored row.
func FromValue(v *ConfigValue) EffectiveValue {
	return EffectiveValue{
		Key:            v.Key,
		Value:          v.Value,
		Found:          true,
		Level:          v.Level.Kind(),
		IsOverride:     v.IsOverride,
		Source:         v.Source,
		SourceDocument: v.SourceDocument,
		Rationale:      v.Rationale,
	}
}

// FromDefault builds the EffectiveValue view of a catalog default.
func FromDefault(key, defaultValue string) EffectiveValue {
	return EffectiveValue{
		Key:    key,
		Value:  defaultValue,
		Found:  true,
		Level:  LevelDefault,
		Source: SourceDefault,
	}
}

// NotFound builds the null resolution result for a key with no explicit
// row at any tier and no catalog default.
func NotFound(key string) EffectiveValue {
	return EffectiveValue{Key: key}
}
