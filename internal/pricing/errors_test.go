package pricing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireSample(t *testing.T) {
	h := series([]float64{100, 0, 120, 130}, []int{5, 3, 0, 4})

	err := RequireSample(h, 7)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)

	var ide *InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, 2, ide.Have)
	assert.Equal(t, 7, ide.Need)

	assert.NoError(t, RequireSample(h, 2))
}

func TestValidateProductPrices(t *testing.T) {
	assert.NoError(t, ValidateProductPrices(1500, 800))
	assert.ErrorIs(t, ValidateProductPrices(0, 800), ErrInvalidInput)
	assert.ErrorIs(t, ValidateProductPrices(1500, -1), ErrInvalidInput)
}
