package finalize

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tropica/briefbuddy/signal"
)

func TestGateFiresOnce(t *testing.T) {
	t.Parallel()
	var g Gate
	assert.Equal(t, Armed, g.State())
	assert.True(t, g.TryFire())
	assert.False(t, g.TryFire())
	assert.Equal(t, Fired, g.State())

	g.Reset()
	assert.Equal(t, Armed, g.State())
	assert.True(t, g.TryFire())

	g.Rearm()
	assert.False(t, g.Fired())
}

func TestGateConcurrent(t *testing.T) {
	t.Parallel()
	var g Gate
	var fired atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryFire() {
				fired.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, fired.Load())
}

func TestGateWithRepeatedMarkersInStream(t *testing.T) {
	t.Parallel()
	marker := signal.FormatProgress(nil)
	chunks := []string{"Gracias.", marker, " Repito: ", marker}

	run := func(g *Gate) int {
		var s signal.Scanner
		calls := 0
		for _, c := range chunks {
			if sig, ok := s.Feed(c); ok && sig.Progress.Complete && g.TryFire() {
				calls++
			}
		}
		return calls
	}

	var g Gate
	assert.Equal(t, 1, run(&g))
	assert.Equal(t, 0, run(&g))
	g.Reset()
	assert.Equal(t, 1, run(&g))
}
