package validation

import (
	"errors"
	"testing"

	"github.com/erp/costledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLine struct {
	CardID uuid.UUID `json:"card_id" validate:"required"`
}

type testCommand struct {
	Marketplace string     `json:"marketplace" validate:"required,max=8"`
	Days        int        `json:"days" validate:"gte=0"`
	Lines       []testLine `json:"lines" validate:"min=1,dive"`
}

func TestStruct_Valid(t *testing.T) {
	cmd := testCommand{
		Marketplace: "ozon",
		Lines:       []testLine{{CardID: uuid.New()}},
	}
	assert.NoError(t, Struct(cmd))
}

func TestStruct_Invalid(t *testing.T) {
	cmd := testCommand{
		Marketplace: "",
		Days:        -1,
		Lines:       []testLine{{CardID: uuid.Nil}},
	}

	err := Struct(cmd)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	assert.Contains(t, err.Error(), "marketplace: This field is required")
	assert.Contains(t, err.Error(), "days: Must be greater than or equal to 0")
	assert.Contains(t, err.Error(), "lines[0].card_id: This field is required")
}

func TestFields(t *testing.T) {
	err := Validator().Struct(testCommand{Marketplace: "too-long-name", Lines: nil})
	fields := Fields(err)
	require.Len(t, fields, 2)
	assert.Equal(t, "marketplace", fields[0].Field)
	assert.Equal(t, "Must be at most 8 characters", fields[0].Message)
	assert.Equal(t, "lines", fields[1].Field)
	assert.Equal(t, "Must contain at least 1 items", fields[1].Message)

	assert.Nil(t, Fields(errors.New("other")))
}
