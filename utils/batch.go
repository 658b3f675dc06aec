package utils

import (
	"context"
	"sync"
)

// BatchConfig 批量查询配置
type BatchConfig struct {
	// Concurrency 并发数量
	Concurrency int
	// OnProgress 进度回调（在工作协程中串行调用）
	OnProgress func(progress BatchProgress)
}

// BatchProgress 批量查询进度
type BatchProgress struct {
	Completed  int
	Total      int
	Percentage int
	Success    int
	Failed     int
}

// DefaultBatchConfig 返回默认批量配置
func DefaultBatchConfig() *BatchConfig {
	return &BatchConfig{Concurrency: 5}
}

// BatchItemResult 单个项目的查询结果
type BatchItemResult[R any] struct {
	Index int
	Value R
	Err   error
}

// BatchQueryResult 批量查询结果
//
// Items 与输入一一对应、顺序一致。
type BatchQueryResult[R any] struct {
	Items   []BatchItemResult[R]
	Total   int
	Success int
	Failed  int
}

// BatchQuery 并发查询一组输入
//
// 单项失败不会中断其他查询；ctx 取消后尚未开始的项目记为 ctx.Err()。
//
// 示例：
//
//	res := BatchQuery(ctx, roomIDs, func(ctx context.Context, id *big.Int, _ int) (*treasury.RoomState, error) {
//	    return reader.GetRoomState(ctx, id, day)
//	}, DefaultBatchConfig())
func BatchQuery[T any, R any](
	ctx context.Context,
	items []T,
	queryFn func(ctx context.Context, item T, index int) (R, error),
	config *BatchConfig,
) *BatchQueryResult[R] {
	if config == nil {
		config = DefaultBatchConfig()
	}
	concurrency := config.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	out := &BatchQueryResult[R]{
		Items: make([]BatchItemResult[R], len(items)),
		Total: len(items),
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, concurrency)
	)

	finish := func(idx int, value R, err error) {
		mu.Lock()
		defer mu.Unlock()
		out.Items[idx] = BatchItemResult[R]{Index: idx, Value: value, Err: err}
		if err != nil {
			out.Failed++
		} else {
			out.Success++
		}
		if config.OnProgress != nil {
			completed := out.Success + out.Failed
			config.OnProgress(BatchProgress{
				Completed:  completed,
				Total:      out.Total,
				Percentage: completed * 100 / out.Total,
				Success:    out.Success,
				Failed:     out.Failed,
			})
		}
	}

	for i, item := range items {
		wg.Add(1)
		go func(idx int, item T) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				var zero R
				finish(idx, zero, ctx.Err())
				return
			}

			if err := ctx.Err(); err != nil {
				var zero R
				finish(idx, zero, err)
				return
			}
			value, err := queryFn(ctx, item, idx)
			finish(idx, value, err)
		}(i, item)
	}
	wg.Wait()

	return out
}
