package structural

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcore/engine/pkg/models"
)

func TestMergeExecutor_WaitAllReturnsSameListToEveryCaller(t *testing.T) {
	ec := newTestContext()
	node := &models.Node{ID: "merge-1", Parameters: map[string]interface{}{
		"mode":       "waitAll",
		"inputCount": 2,
	}}

	var wg sync.WaitGroup
	outs := make([]map[string]interface{}, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		out, err := MergeExecutor{}.Execute(context.Background(), ec, node, map[string]interface{}{"branch": "a"})
		require.NoError(t, err)
		outs[0] = out
	}()
	go func() {
		defer wg.Done()
		out, err := MergeExecutor{}.Execute(context.Background(), ec, node, map[string]interface{}{"branch": "b"})
		require.NoError(t, err)
		outs[1] = out
	}()
	wg.Wait()

	merged, ok := outs[0]["merged"].([]interface{})
	require.True(t, ok)
	assert.Len(t, merged, 2)
	assert.Equal(t, outs[0]["merged"], outs[1]["merged"])
}

func TestMergeExecutor_ExclusiveSuppressesLosers(t *testing.T) {
	ec := newTestContext()
	node := &models.Node{ID: "merge-1", Parameters: map[string]interface{}{
		"mode":       "waitAny",
		"waitForAll": false,
	}}

	first, err := MergeExecutor{}.Execute(context.Background(), ec, node, map[string]interface{}{"branch": "a"})
	require.NoError(t, err)
	assert.NotEqual(t, true, first["_stopExecution"])

	second, err := MergeExecutor{}.Execute(context.Background(), ec, node, map[string]interface{}{"branch": "b"})
	require.NoError(t, err)
	assert.Equal(t, true, second["_stopExecution"])
}

func TestMergeExecutor_WaitAnyReleasesOnFirstArrival(t *testing.T) {
	ec := newTestContext()
	node := &models.Node{ID: "merge-1", Parameters: map[string]interface{}{
		"mode":       "waitAny",
		"inputCount": 3,
	}}

	out, err := MergeExecutor{}.Execute(context.Background(), ec, node, map[string]interface{}{"branch": "a"})
	require.NoError(t, err)
	assert.Nil(t, out["_stopExecution"])
	assert.Equal(t, map[string]interface{}{"branch": "a"}, out["merged"])
}

func TestMergeExecutor_TimeoutFallsBackToDefault(t *testing.T) {
	ec := newTestContext()
	node := &models.Node{ID: "merge-1", Parameters: map[string]interface{}{
		"mode":       "waitAll",
		"inputCount": 2,
	}}
	merger := MergeExecutor{DefaultTimeout: 20 * time.Millisecond}

	start := time.Now()
	out, err := merger.Execute(context.Background(), ec, node, map[string]interface{}{"branch": "a"})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, true, out["_timedOut"])
	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
}

func TestMergeExecutor_NodeTimeoutOverridesDefault(t *testing.T) {
	ec := newTestContext()
	node := &models.Node{ID: "merge-1", Parameters: map[string]interface{}{
		"mode":       "waitAll",
		"inputCount": 2,
		"timeout":    0.01,
	}}
	merger := MergeExecutor{DefaultTimeout: time.Minute}

	start := time.Now()
	_, err := merger.Execute(context.Background(), ec, node, map[string]interface{}{"branch": "a"})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Less(t, elapsed, time.Minute)
}
