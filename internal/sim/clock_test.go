package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClock_Ordinals(t *testing.T) {
	c := NewClock()
	assert.Equal(t, uint64(0), c.Current())
	assert.Equal(t, uint64(1), c.Next())
	assert.Equal(t, uint64(2), c.Next())
	assert.Equal(t, uint64(2), c.Current())
}

func TestClock_Time(t *testing.T) {
	c := NewClock()
	assert.Equal(t, uint64(0), c.NowNS())
	c.AdvanceNS(1500)
	c.AdvanceNS(500)
	assert.Equal(t, uint64(2000), c.NowNS())
}
