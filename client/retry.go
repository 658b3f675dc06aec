package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"
)

// RetryConfig 重试配置
type RetryConfig struct {
	// MaxRetries 最大重试次数（总尝试次数 = MaxRetries + 1）
	MaxRetries int
	// InitialDelay 初始延迟（毫秒）
	InitialDelay int
	// MaxDelay 最大延迟（毫秒）
	MaxDelay int
	// BackoffMultiplier 退避倍数（1.0 表示固定间隔）
	BackoffMultiplier float64
	// Retryable 判断错误是否可重试的函数
	Retryable func(error) bool
	// OnRetry 重试前的回调函数
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig 返回默认重试配置（只读请求使用）
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        3,
		InitialDelay:      1000,
		MaxDelay:          10000,
		BackoffMultiplier: 2.0,
		Retryable:         isRetryableError,
		OnRetry:           nil,
	}
}

// FixedIntervalConfig 返回固定间隔的轮询配置
//
// attempts 为总尝试次数，interval 为两次尝试之间的等待时间；
// 不做抖动，不做指数退避。
func FixedIntervalConfig(attempts int, interval time.Duration) *RetryConfig {
	if attempts < 1 {
		attempts = 1
	}
	ms := int(interval / time.Millisecond)
	return &RetryConfig{
		MaxRetries:        attempts - 1,
		InitialDelay:      ms,
		MaxDelay:          ms,
		BackoffMultiplier: 1.0,
		Retryable:         func(error) bool { return true },
	}
}

// HTTPStatusError toncenter 返回的可重试 HTTP 状态
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d", e.StatusCode)
}

// isRetryableError 判断错误是否可重试
//
// 可重试：网络超时、DNS 失败、连接被拒绝 / 重置、5xx 与 429 响应。
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return isRetryableHTTPError(statusErr.StatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "connection refused") || strings.Contains(msg, "connection reset")
}

// isRetryableHTTPError 5xx，或 429（toncenter 未带 API Key 时限速 1 rps）
func isRetryableHTTPError(statusCode int) bool {
	return statusCode >= 500 && statusCode < 600 || statusCode == http.StatusTooManyRequests
}

// calculateBackoffDelay 第 attempt 次失败后的等待时间：InitialDelay * multiplier^attempt，不超过 MaxDelay
func calculateBackoffDelay(attempt int, config *RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(math.Max(config.BackoffMultiplier, 1), float64(attempt))
	if config.MaxDelay > 0 {
		delay = math.Min(delay, float64(config.MaxDelay))
	}
	return time.Duration(delay) * time.Millisecond
}

// WithRetry 带重试的函数执行器
//
// fn 返回 nil 即结束；最后一次尝试后返回包装了最后一个错误的错误。
// ctx 取消时立即返回 ctx.Err()。
func WithRetry(ctx context.Context, fn func(attempt int) error, config *RetryConfig) error {
	if config == nil {
		return fn(0)
	}

	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}

		lastErr = err

		// 如果是最后一次尝试，直接返回错误
		if attempt >= config.MaxRetries {
			break
		}

		// 判断是否可重试
		retryable := config.Retryable
		if retryable == nil {
			retryable = isRetryableError
		}
		if !retryable(err) {
			return err
		}

		// 计算延迟时间
		delay := calculateBackoffDelay(attempt, config)

		// 调用重试回调
		if config.OnRetry != nil {
			config.OnRetry(attempt+1, err)
		}

		// 等待后重试
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	// 所有重试都失败，返回最后一个错误
	return fmt.Errorf("retry failed after %d attempts: %w", config.MaxRetries+1, lastErr)
}
