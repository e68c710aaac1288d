package domain

import "time"

// ConfigHistory is one append-only audit record of a configuration change.
// OldValue is nil for the first write at a level. Rows are never updated
// or deleted, including during bulk clears of the values they describe.
type ConfigHistory struct {
	ID             int64     `json:"id"`
	Key            string    `json:"key"`
	Level          Level     `json:"level"`
	OldValue       *string   `json:"old_value"`
	NewValue       string    `json:"new_value"`
	ChangedBy      string    `json:"changed_by"`
	ChangeReason   string    `json:"change_reason,omitempty"`
	SourceDocument string    `json:"source_document,omitempty"`
	ChangedAt      time.Time `json:"changed_at"`
}

// Validate checks if the ConfigHistory has valid data.
func (h *ConfigHistory) Validate() error {
	if h.Key == "" {
		return ErrEmptyConfigKey
	}
	if err := h.Level.Validate(); err != nil {
		return err
	}
	return nil
}
