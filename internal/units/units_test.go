package units

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAngularConversions(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, math.Pi, DegToRad(180), 1e-12)
	assert.InDelta(t, 180.0, RadToDeg(math.Pi), 1e-12)
	assert.InDelta(t, 360.0, ConvertAngularVelocity(2*math.Pi, DegPerSec), 1e-9)
	assert.InDelta(t, 1.5, ConvertAngularVelocity(1.5, RadPerSec), 1e-12)
	// Unknown units fall back to rad/s rather than guessing.
	assert.InDelta(t, 1.5, ConvertAngularVelocity(1.5, "furlongps"), 1e-12)
}

func TestIsValidAngular(t *testing.T) {
	t.Parallel()

	assert.True(t, IsValidAngular(DegPerSec))
	assert.True(t, IsValidAngular(RadPerSec))
	assert.False(t, IsValidAngular("mph"))
}

func TestMMToM(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.5, MMToM(1500), 1e-12)
}
