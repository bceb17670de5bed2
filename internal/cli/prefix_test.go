package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchChoice(t *testing.T) {
	grinds := []string{"whole-bean", "drip", "pour-over", "french-press", "espresso"}

	tests := []struct {
		name      string
		input     string
		want      string
		wantError bool
		errorMsg  string
	}{
		{
			name:  "exact match",
			input: "drip",
			want:  "drip",
		},
		{
			name:  "exact match case insensitive",
			input: "DRIP",
			want:  "drip",
		},
		{
			name:  "display label",
			input: "Whole Bean",
			want:  "whole-bean",
		},
		{
			name:  "underscores",
			input: "french_press",
			want:  "french-press",
		},
		{
			name:  "unique prefix",
			input: "esp",
			want:  "espresso",
		},
		{
			name:  "single letter prefix",
			input: "p",
			want:  "pour-over",
		},
		{
			name:      "no match",
			input:     "cold-brew",
			wantError: true,
			errorMsg:  "expected one of whole-bean, drip, pour-over, french-press, espresso",
		},
		{
			name:      "empty",
			input:     "  ",
			wantError: true,
			errorMsg:  "must not be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MatchChoice("grind", tt.input, grinds)
			if tt.wantError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Contains(t, err.Error(), "invalid grind")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchChoiceAmbiguous(t *testing.T) {
	sizes := []string{"12oz", "2lb", "5lb", "250g"}

	got, err := MatchChoice("size", "12", sizes)
	require.NoError(t, err)
	assert.Equal(t, "12oz", got)

	_, err = MatchChoice("size", "2", sizes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous, matches 2lb, 250g")
}
