package wine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBatchValidates(t *testing.T) {
	_, err := NewBatch("b1", "pinot noir", 100, even(0.5))
	require.NoError(t, err)

	c := even(0.5)
	c.Tannins = 1.2
	_, err = NewBatch("b2", "syrah", 100, c)
	assert.ErrorIs(t, err, ErrCharacteristicRange)
}

func TestBlendIsVolumeWeighted(t *testing.T) {
	a, _ := NewBatch("a", "merlot", 300, even(0.2))
	b, _ := NewBatch("b", "cabernet", 100, even(0.6))

	got, total, err := Blend([]BlendPart{{Batch: a, Volume: 300}, {Batch: b, Volume: 100}})
	require.NoError(t, err)
	assert.Equal(t, 400.0, total)
	assert.InDelta(t, 0.3, got.Acidity, 1e-12)
	assert.InDelta(t, 0.3, got.Tannins, 1e-12)
	require.NoError(t, got.Validate())
}

func TestBlendEmpty(t *testing.T) {
	_, _, err := Blend(nil)
	assert.ErrorIs(t, err, ErrEmptyBlend)
	a, _ := NewBatch("a", "merlot", 0, even(0.2))
	_, _, err = Blend([]BlendPart{{Batch: a, Volume: 0}})
	assert.ErrorIs(t, err, ErrEmptyBlend)
}
