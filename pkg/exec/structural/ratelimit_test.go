package structural

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcore/engine/pkg/models"
)

func TestRateLimitExecutor_SpacesSuccessiveDispatches(t *testing.T) {
	ec := newTestContext()
	node := &models.Node{ID: "rl-1", Parameters: map[string]interface{}{"interval": float64(30)}}

	start := time.Now()
	for i := 0; i < 3; i++ {
		out, err := RateLimitExecutor{}.Execute(context.Background(), ec, node, map[string]interface{}{"i": i})
		require.NoError(t, err)
		assert.Equal(t, i, out["i"])
	}
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
}

func TestRateLimitExecutor_NoIntervalPassesThroughImmediately(t *testing.T) {
	ec := newTestContext()
	node := &models.Node{ID: "rl-1", Parameters: map[string]interface{}{}}

	start := time.Now()
	out, err := RateLimitExecutor{}.Execute(context.Background(), ec, node, map[string]interface{}{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, 1, out["x"])
	assert.Less(t, time.Since(start), 20*time.Millisecond)
}

func TestRateLimitExecutor_CancelledContextDuringWait(t *testing.T) {
	ec := newTestContext()
	node := &models.Node{ID: "rl-1", Parameters: map[string]interface{}{"interval": float64(1000)}}

	// Prime the limiter so the next Wait has to queue.
	_, err := RateLimitExecutor{}.Execute(context.Background(), ec, node, map[string]interface{}{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = RateLimitExecutor{}.Execute(ctx, ec, node, map[string]interface{}{})
	assert.Error(t, err)
}
