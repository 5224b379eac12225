package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword(t *testing.T) {
	cases := map[string]bool{
		"abc1!x":         true,
		"Secret#2024":    true,
		"abc12":          false,
		"abcdef!":        false,
		"abcdef1":        false,
		"abc 1!xy":       false,
		"pass\u00e9rd1!": false,
	}
	for in, want := range cases {
		assert.Equal(t, want, Password(in), in)
	}
}

func TestPhone(t *testing.T) {
	e164, err := Phone("9876543210", "IN")
	require.NoError(t, err)
	assert.Equal(t, "+919876543210", e164)

	_, err = Phone("12345", "IN")
	assert.Error(t, err)

	_, err = Phone("not a phone", "IN")
	assert.Error(t, err)
}

func TestNewReportsJSONNames(t *testing.T) {
	type body struct {
		FullName string `json:"name" validate:"required"`
	}
	err := New().Struct(body{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'name'")
}
