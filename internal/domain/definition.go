package domain

import "errors"

// DataType tags the declared shape of a configuration value. The engine
// stores every value as text; the type tag is metadata for consumers and
// for the write-time normalizer.
type DataType string

// Possible data type values
const (
	DataTypeString  DataType = "string"
	DataTypeInteger DataType = "integer"
	DataTypeBoolean DataType = "boolean"
	DataTypePhone   DataType = "phone"
	DataTypeEmail   DataType = "email"
	DataTypeTime    DataType = "time"
	DataTypeList    DataType = "list"
	DataTypeText    DataType = "text"
)

// AppliesTo constrains which hierarchy tiers may legally hold an explicit
// value for a key.
type AppliesTo string

// Possible applies_to values
const (
	AppliesToProgram  AppliesTo = "program"
	AppliesToClinic   AppliesTo = "clinic"
	AppliesToLocation AppliesTo = "location"
	AppliesToAll      AppliesTo = "all"
)

// Common validation errors for ConfigDefinition
var (
	ErrEmptyConfigKey      = errors.New("config key cannot be empty")
	ErrEmptyCategory       = errors.New("definition category cannot be empty")
	ErrEmptyDisplayName    = errors.New("definition display name cannot be empty")
	ErrInvalidDataType     = errors.New("invalid definition data type")
	ErrInvalidAppliesTo    = errors.New("invalid definition applies_to")
	ErrInvalidAllowedValue = errors.New("value not in definition allowed values")
)

// ConfigDefinition is the declarative metadata for one configuration key:
// its category, type, default, and which tiers it may be set at. Loaded in
// bulk from the YAML catalog and upserted by key.
type ConfigDefinition struct {
	Key              string    `json:"key"                        yaml:"config_key"`
	Category         string    `json:"category"                   yaml:"category"`
	DisplayName      string    `json:"display_name"               yaml:"display_name"`
	Description      string    `json:"description,omitempty"      yaml:"description"`
	DataType         DataType  `json:"data_type"                  yaml:"data_type"`
	AllowedValues    []string  `json:"allowed_values,omitempty"   yaml:"allowed_values"`
	DefaultValue     string    `json:"default_value,omitempty"    yaml:"default_value"`
	AppliesTo        AppliesTo `json:"applies_to"                 yaml:"applies_to"`
	IsRequired       bool      `json:"is_required"                yaml:"is_required"`
	IsClinicEditable bool      `json:"is_clinic_editable"         yaml:"is_clinic_editable"`
	ValidationRegex  string    `json:"validation_regex,omitempty" yaml:"validation_regex"`
	DisplayOrder     int       `json:"display_order"              yaml:"display_order"`
}

// Validate checks if the ConfigDefinition has valid data.
func (d *ConfigDefinition) Validate() error {
	if d.Key == "" {
		return ErrEmptyConfigKey
	}
	if d.Category == "" {
		return ErrEmptyCategory
	}
	if d.DisplayName == "" {
		return ErrEmptyDisplayName
	}
	if !isValidDataType(d.DataType) {
		return ErrInvalidDataType
	}
	if !isValidAppliesTo(d.AppliesTo) {
		return ErrInvalidAppliesTo
	}
	return nil
}

// HasDefault reports whether the catalog supplies a fallback value for
// this key. An empty default is treated as absent.
func (d *ConfigDefinition) HasDefault() bool {
	return d.DefaultValue != ""
}

// AllowsLevel reports whether an explicit value may be stored for this key
// at the given hierarchy tier.
func (d *ConfigDefinition) AllowsLevel(kind LevelKind) bool {
	switch d.AppliesTo {
	case AppliesToAll:
		return true
	case AppliesToProgram:
		return kind == LevelProgram
	case AppliesToClinic:
		// A clinic-scoped key may still be set at program level as the
		// inherited base value; only location rows are out of bounds.
		return kind == LevelProgram || kind == LevelClinic
	case AppliesToLocation:
		return true
	default:
		return false
	}
}

func isValidDataType(t DataType) bool {
	switch t {
	case DataTypeString, DataTypeInteger, DataTypeBoolean, DataTypePhone,
		DataTypeEmail, DataTypeTime, DataTypeList, DataTypeText:
		return true
	default:
		return false
	}
}

func isValidAppliesTo(a AppliesTo) bool {
	switch a {
	case AppliesToProgram, AppliesToClinic, AppliesToLocation, AppliesToAll:
		return true
	default:
		return false
	}
}
