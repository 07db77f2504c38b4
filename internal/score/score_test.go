package score

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-5))
	assert.Equal(t, 100.0, Clamp(120))
	assert.Equal(t, 42.0, Clamp(42))
	assert.Equal(t, Neutral, Clamp(math.NaN()))
	assert.Equal(t, Neutral, Clamp(math.Inf(1)))
	assert.Equal(t, Neutral, Clamp(math.Inf(-1)))
}

func TestSigmoidDisabled(t *testing.T) {
	assert.Equal(t, 72.0, Sigmoid(72, 0))
	assert.Equal(t, 72.0, Sigmoid(72, -1))
	assert.Equal(t, 100.0, Sigmoid(130, 0), "disabled transform still clamps")
}

func TestSigmoidMidpointAndSymmetry(t *testing.T) {
	assert.InDelta(t, 50.0, Sigmoid(50, 0.1), 1e-9)

	hi := Sigmoid(70, 0.1)
	lo := Sigmoid(30, 0.1)
	assert.InDelta(t, 100, hi+lo, 1e-9, "sigmoid is symmetric around 50")
	assert.Greater(t, hi, 70.0, "sensitivity 0.1 sharpens away from the midpoint")
}

func TestSigmoidMonotonic(t *testing.T) {
	prev := Sigmoid(0, 0.2)
	for x := 5.0; x <= 100; x += 5 {
		cur := Sigmoid(x, 0.2)
		assert.Greater(t, cur, prev)
		prev = cur
	}
}

func TestSigmoidNonFiniteInput(t *testing.T) {
	assert.Equal(t, Neutral, Sigmoid(math.NaN(), 0.1))
	assert.Equal(t, Neutral, Sigmoid(math.NaN(), 0))
}

func TestInsufficientData(t *testing.T) {
	out := InsufficientData(10, 15)
	assert.Equal(t, Neutral, out.Score)
	assert.True(t, out.Insufficient)
	assert.NotEmpty(t, out.Trace)
}

func TestCapped(t *testing.T) {
	assert.Equal(t, 10.0, capped(2, 5, 20))
	assert.Equal(t, 20.0, capped(100, 5, 20))
	assert.Equal(t, -20.0, capped(-100, 5, 20))
	assert.Equal(t, -2.5, capped(-0.5, 5, 20))
	assert.Equal(t, 0.0, capped(0, 5, 20))
}
