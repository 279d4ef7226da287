package retry

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"
)

// Policy 定義指數退避重試的參數
type Policy struct {
	MaxTries  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// NewPolicy 建立重試策略；MaxTries 須為正數
func NewPolicy(maxTries int, baseDelay, maxDelay time.Duration) (Policy, error) {
	if maxTries <= 0 {
		return Policy{}, fmt.Errorf("maxTries (%d) 必須為正數", maxTries)
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	if maxDelay < baseDelay {
		maxDelay = baseDelay
	}
	return Policy{MaxTries: maxTries, BaseDelay: baseDelay, MaxDelay: maxDelay}, nil
}

// IsRateLimitError 判斷失敗是否屬於速率限制/資源耗盡一類。
// 底層 SDK 只以一般 error 浮出，其字串形式可能帶 HTTP 狀態碼。
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "too many requests", "resource exhausted", "resource_exhausted", "quota"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Do 執行 op；只有速率限制類的失敗會以 base * 2^attempt（封頂）退避後重試，
// 其他錯誤立即回傳。重試次數用盡後回傳最後一次的錯誤，
// 呼叫端應將其視為單項失敗，而非整批失敗。
func (p Policy) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < p.MaxTries; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsRateLimitError(lastErr) {
			return lastErr
		}
		if attempt == p.MaxTries-1 {
			break
		}
		delay := time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt)))
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
		log.Printf("警告：[Retry] %s 第 %d/%d 次嘗試遇到速率限制 (%v)，%s 後重試...\n",
			name, attempt+1, p.MaxTries, lastErr, delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("%s 重試 %d 次後仍失敗: %w", name, p.MaxTries, lastErr)
}
