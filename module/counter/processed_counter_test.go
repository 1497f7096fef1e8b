package counter

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIncrement_CreatesAndAccumulatesPerEpoch(t *testing.T) {
	c := New()

	require.EqualValues(t, 0, c.Get(5))

	c.Increment(5)
	c.Increment(5)
	c.Increment(6)

	require.EqualValues(t, 2, c.Get(5))
	require.EqualValues(t, 1, c.Get(6))
}

func TestIncrement_ConcurrentSafe(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	const n = 200
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Increment(1)
		}()
	}
	wg.Wait()

	require.EqualValues(t, n, c.Get(1))
}
