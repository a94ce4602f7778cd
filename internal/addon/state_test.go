package addon

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nightwatch-dev/nwupd/internal/download"
)

var (
	_ download.Progress = (*cell)(nil)
	_ download.Resetter = (*cell)(nil)
)

func TestCellSetKeepsHighWaterMark(t *testing.T) {
	var c cell
	c.Set(0.8)
	c.Set(0.5)

	_, _, fraction := c.snapshot()
	assert.Equal(t, 0.8, fraction)
}

func TestCellResetRewindsFraction(t *testing.T) {
	var c cell
	c.Set(0.8)

	c.Reset()
	_, _, fraction := c.snapshot()
	assert.Equal(t, 0.0, fraction)

	c.Set(0.3)
	_, _, fraction = c.snapshot()
	assert.Equal(t, 0.3, fraction)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "installed", StateInstalled.String())
	assert.Equal(t, "not installed", StateAbsent.String())
	assert.Equal(t, "unknown", StateUnknown.String())
}
