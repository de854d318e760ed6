package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigmoidMask(t *testing.T) {
	const size = 2
	logits := []float32{20, -20, 0, 20}

	m := sigmoidMask(logits, size)

	require.Equal(t, size*size, len(m.Pix))
	assert.InDelta(t, 1, m.Pix[0], 1e-6)   // saturated foreground
	assert.InDelta(t, 0, m.Pix[1], 1e-6)   // saturated background
	assert.InDelta(t, 0.5, m.Pix[2], 1e-6) // sigmoid(0)
	assert.Less(t, m.Pix[1], m.Pix[2])
}

func TestSigmoidMaskToGray(t *testing.T) {
	g := sigmoidMask([]float32{20, -20, 0, 20}, 2).ToGray()

	assert.Equal(t, []uint8{255, 0, 128, 255}, g.Pix)
}
