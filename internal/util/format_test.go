package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected string
	}{
		{name: "zero", input: 0, expected: "0"},
		{name: "hundreds", input: 999, expected: "999"},
		{name: "thousands", input: 1000, expected: "1,000"},
		{name: "millions", input: 1234567, expected: "1,234,567"},
		{name: "negative", input: -45000, expected: "-45,000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatNumber(tt.input))
		})
	}
}

func TestFormatTokens(t *testing.T) {
	assert.Equal(t, "950", FormatTokens(950))
	assert.Equal(t, "1.5K", FormatTokens(1500))
	assert.Equal(t, "2.5M", FormatTokens(2500000))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "12s", FormatDuration(12*time.Second))
	assert.Equal(t, "5m", FormatDuration(5*time.Minute))
	assert.Equal(t, "2h 30m", FormatDuration(150*time.Minute))
}
