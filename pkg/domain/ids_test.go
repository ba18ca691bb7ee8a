package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "oncofeliz/pkg/domain-errors"
)

// TestParseID_Invariants validates that ids are positive decimal integers.
func TestParseID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseCaseID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects zero", func(t *testing.T) {
		_, err := ParseCaseID("0")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid id", func(t *testing.T) {
		id, err := ParseCaseID("42")
		require.NoError(t, err)
		assert.Equal(t, CaseID(42), id)
		assert.Equal(t, "42", id.String())
	})
}

func TestParseID_HostileInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "1; DROP TABLE cases;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "12\x0034", true},
		{"Oversized input", strings.Repeat("9", 40), true},
		{"Overflow", "9223372036854775808", true},
		{"Negative", "-5", true},
		{"Explicit plus sign", "+5", true},
		{"Surrounding whitespace", " 5 ", true},
		{"Hex", "0x1F", true},
		{"Largest int64", "9223372036854775807", false},
		{"Plain", "7", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAidRequestID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestAllIDTypes_ConsistentBehavior ensures all id types share parsing rules.
func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	for _, input := range []string{"", "abc", "0", "-1", "15"} {
		t.Run("input "+input, func(t *testing.T) {
			_, errCase := ParseCaseID(input)
			_, errBen := ParseBeneficiaryID(input)
			_, errAid := ParseAidRequestID(input)
			_, errUser := ParseUserID(input)

			assert.Equal(t, errCase == nil, errBen == nil)
			assert.Equal(t, errCase == nil, errAid == nil)
			assert.Equal(t, errCase == nil, errUser == nil)
		})
	}
}
