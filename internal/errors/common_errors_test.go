package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without cause",
			err:      NewMissingColumnError("Location"),
			expected: `[MISSING_COLUMN] column "Location" not found`,
		},
		{
			name:     "with cause",
			err:      NewMalformedSectionError("Count", fmt.Errorf("wrong number of fields")),
			expected: `[MALFORMED_SECTION] failed to parse section "Count": wrong number of fields`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_IsMatchesByType(t *testing.T) {
	err := fmt.Errorf("plate P1: %w", NewEmptySectionError("Median"))

	assert.True(t, Is(err, ErrEmptySection))
	assert.False(t, Is(err, ErrNotFound))
	assert.False(t, Is(stderrors.New("plain"), ErrEmptySection))
}

func TestAppError_UnwrapReachesCause(t *testing.T) {
	cause := stderrors.New("bare quote")
	err := NewMalformedSectionError("Count", cause)

	assert.True(t, Is(err, cause))
}

func TestAppError_WithContext(t *testing.T) {
	err := NewKeyNotFoundError("plate1", "/keys/plate1_key.csv")

	assert.Equal(t, "plate1", err.Context["plate"])
	assert.Equal(t, "/keys/plate1_key.csv", err.Context["path"])

	err.WithContext("data_type", "Count")
	assert.Equal(t, "Count", err.Context["data_type"])
}

func TestTypeOf(t *testing.T) {
	typ, ok := TypeOf(fmt.Errorf("wrapped: %w", NewMissingReferenceColumnError("BSA")))
	require.True(t, ok)
	assert.Equal(t, ErrTypeMissingReferenceColumn, typ)

	_, ok = TypeOf(stderrors.New("plain"))
	assert.False(t, ok)
}

func TestIsPlateLevel(t *testing.T) {
	assert.True(t, IsPlateLevel(NewDuplicateWellError("P1", []string{"A1"})))
	assert.True(t, IsPlateLevel(NewNotFoundError("section \"Count\"")))
	assert.False(t, IsPlateLevel(NewConfigError("fail threshold must be below warning threshold", nil)))
	assert.False(t, IsPlateLevel(stderrors.New("plain")))
}
