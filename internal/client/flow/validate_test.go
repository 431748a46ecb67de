package flow

import (
	"testing"

	"github.com/dmitrijs2005/gophprint/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCredential(t *testing.T) {
	valid := []struct{ in, want string }{
		{"user@example.com", "user@example.com"},
		{"  user@example.com \t", "user@example.com"},
		{"first.last+tag@sub.example.co", "first.last+tag@sub.example.co"},
		{"12345", "12345"},
		{"+15551234567", "+15551234567"},
		{"9", "9"},
		{"1234567890123456", "1234567890123456"},
	}
	for _, tt := range valid {
		t.Run("valid "+tt.in, func(t *testing.T) {
			got, err := ValidateCredential(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	invalid := []struct{ in, msg string }{
		{"", msgEmptyCredential},
		{"   ", msgEmptyCredential},
		{"bad email", msgInvalidCredential},
		{"user@example", msgInvalidCredential},
		{"@example.com", msgInvalidCredential},
		{"0123", msgInvalidCredential},
		{"++123", msgInvalidCredential},
		{"12345678901234567", msgInvalidCredential},
		{"555-1234", msgInvalidCredential},
	}
	for _, tt := range invalid {
		t.Run("invalid "+tt.in, func(t *testing.T) {
			_, err := ValidateCredential(tt.in)
			require.ErrorIs(t, err, common.ErrValidation)
			assert.EqualError(t, err, tt.msg)
		})
	}
}
