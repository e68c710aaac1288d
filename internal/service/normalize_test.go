package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeValuePhone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"parenthesized", "(800) 555-0100", "800.555.0100"},
		{"dashed", "800-555-0100", "800.555.0100"},
		{"dotted already", "800.555.0100", "800.555.0100"},
		{"bare digits", "8005550100", "800.555.0100"},
		{"leading country code", "1-800-555-0100", "800.555.0100"},
		{"too short passes through", "555-0100", "555-0100"},
		{"extension passes through", "800-555-0100 x12", "800-555-0100 x12"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeValue("helpdesk_phone", tt.input))
		})
	}
}

func TestNormalizeValueBoolean(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		key   string
		input string
		want  string
	}{
		{"yes", "sms_enabled", "Yes", "true"},
		{"on", "sms_enabled", "on", "true"},
		{"one", "sms_enabled", "1", "true"},
		{"no", "sms_enabled", "No", "false"},
		{"disabled", "sms_enabled", "disabled", "false"},
		{"zero", "sms_enabled", "0", "false"},
		{"is_ prefix", "is_active", "yes", "true"},
		{"unrecognized passes through", "sms_enabled", "maybe", "maybe"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeValue(tt.key, tt.input))
		})
	}
}

func TestNormalizeValueTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		key   string
		input string
		want  string
	}{
		{"morning with minutes", "hours_open", "8:00 AM", "08:00"},
		{"afternoon", "hours_close", "5:30 pm", "17:30"},
		{"bare hour am", "close_time", "8am", "08:00"},
		{"noon", "close_time", "12:00 PM", "12:00"},
		{"midnight", "open_time", "12:00 AM", "00:00"},
		{"already 24h", "hours_open", "14:30", "14:30"},
		{"garbage passes through", "hours_open", "by appointment", "by appointment"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeValue(tt.key, tt.input))
		})
	}
}

func TestNormalizeValueUnrelatedKey(t *testing.T) {
	t.Parallel()

	// Keys without a heuristic match are left alone.
	assert.Equal(t, "Yes", NormalizeValue("welcome_message", "Yes"))
	assert.Equal(t, "", NormalizeValue("helpdesk_phone", ""))
}
