package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollector_Counts(t *testing.T) {
	c := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Append()
		}()
	}
	wg.Wait()

	c.ChainBroken()
	c.Record(200, 10*time.Millisecond)
	c.Record(503, 30*time.Millisecond)

	snap := c.Snapshot()
	assert.Equal(t, uint64(50), snap["appendsTotal"])
	assert.Equal(t, uint64(1), snap["chainBreaksTotal"])
	assert.Equal(t, uint64(2), snap["requestsTotal"])
	assert.Equal(t, uint64(1), snap["errorsTotal"])
	assert.Equal(t, float64(20), snap["avgDurationMs"])
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.Append()
		c.Published()
		c.Record(200, time.Millisecond)
	})
}
