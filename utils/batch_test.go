package utils

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchQuery(t *testing.T) {
	tests := []struct {
		name   string
		items  []int
		config *BatchConfig
	}{
		{name: "empty items", items: []int{}, config: DefaultBatchConfig()},
		{name: "single item", items: []int{1}, config: nil},
		{name: "multiple items", items: []int{1, 2, 3, 4, 5}, config: &BatchConfig{Concurrency: 2}},
		{name: "zero concurrency", items: []int{1, 2, 3}, config: &BatchConfig{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := BatchQuery(context.Background(), tt.items, func(_ context.Context, item int, _ int) (int, error) {
				return item * 2, nil
			}, tt.config)

			require.Len(t, res.Items, len(tt.items))
			assert.Equal(t, len(tt.items), res.Total)
			assert.Equal(t, len(tt.items), res.Success)
			assert.Zero(t, res.Failed)
			for i, item := range res.Items {
				assert.Equal(t, i, item.Index)
				assert.Equal(t, tt.items[i]*2, item.Value)
				assert.NoError(t, item.Err)
			}
		})
	}
}

func TestBatchQuery_PartialFailure(t *testing.T) {
	boom := errors.New("boom")
	res := BatchQuery(context.Background(), []int{1, 2, 3, 4}, func(_ context.Context, item int, _ int) (int, error) {
		if item%2 == 0 {
			return 0, boom
		}
		return item, nil
	}, nil)

	assert.Equal(t, 2, res.Success)
	assert.Equal(t, 2, res.Failed)
	assert.NoError(t, res.Items[0].Err)
	assert.ErrorIs(t, res.Items[1].Err, boom)
	assert.Equal(t, 3, res.Items[2].Value)
}

func TestBatchQuery_ConcurrencyLimit(t *testing.T) {
	var running, peak atomic.Int32
	BatchQuery(context.Background(), make([]int, 20), func(_ context.Context, _ int, _ int) (int, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return 0, nil
	}, &BatchConfig{Concurrency: 3})

	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestBatchQuery_Progress(t *testing.T) {
	var calls []BatchProgress
	BatchQuery(context.Background(), []int{1, 2, 3}, func(_ context.Context, item int, _ int) (int, error) {
		return item, nil
	}, &BatchConfig{Concurrency: 1, OnProgress: func(p BatchProgress) { calls = append(calls, p) }})

	require.Len(t, calls, 3)
	last := calls[len(calls)-1]
	assert.Equal(t, 3, last.Completed)
	assert.Equal(t, 100, last.Percentage)
}

func TestBatchQuery_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var called atomic.Int32
	res := BatchQuery(ctx, []int{1, 2, 3}, func(_ context.Context, item int, _ int) (int, error) {
		called.Add(1)
		return item, nil
	}, nil)

	assert.Zero(t, called.Load())
	assert.Equal(t, 3, res.Failed)
	for _, item := range res.Items {
		assert.ErrorIs(t, item.Err, context.Canceled)
	}
}
