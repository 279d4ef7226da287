package ratelimit

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// TokenBucket 是對外部模型 API 的唯一進入管制點。
// 令牌以固定速率持續補充，上限為桶容量；取得令牌是鎖保護下的
// 「讀時戳、算補充、扣減」三步，因為多個分析呼叫會並行搶用。
type TokenBucket struct {
	mu              sync.Mutex
	tokensPerSecond float64
	maxTokens       float64
	tokens          float64
	lastUpdate      time.Time

	// now 可在測試中替換
	now func() time.Time
}

// NewTokenBucket 建立一個令牌桶；速率與容量皆須為正數
func NewTokenBucket(tokensPerSecond float64, maxTokens float64) (*TokenBucket, error) {
	if tokensPerSecond <= 0 {
		return nil, fmt.Errorf("tokensPerSecond (%v) 必須為正數", tokensPerSecond)
	}
	if maxTokens <= 0 {
		return nil, fmt.Errorf("maxTokens (%v) 必須為正數", maxTokens)
	}
	b := &TokenBucket{
		tokensPerSecond: tokensPerSecond,
		maxTokens:       maxTokens,
		tokens:          maxTokens,
		now:             time.Now,
	}
	b.lastUpdate = b.now()
	return b, nil
}

// TryAcquire 非阻塞地嘗試取得一枚令牌，回傳是否成功。不會失敗，只會拒絕。
func (b *TokenBucket) TryAcquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	elapsed := now.Sub(b.lastUpdate).Seconds()
	b.tokens = b.tokens + elapsed*b.tokensPerSecond
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastUpdate = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Wait 以固定間隔輪詢 TryAcquire，直到取得令牌或 ctx 被取消。
// 令牌耗盡只會讓呼叫者等待，不會產生錯誤。
func (b *TokenBucket) Wait(ctx context.Context) error {
	interval := time.Duration(float64(time.Second) / b.tokensPerSecond)
	if interval > 10*time.Second {
		interval = 10 * time.Second
	}
	for {
		if b.TryAcquire() {
			return nil
		}
		log.Printf("資訊：[TokenBucket] 令牌耗盡，等待 %s 後重試...\n", interval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
