package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func testPolicy(t *testing.T, maxTries int) Policy {
	t.Helper()
	p, err := NewPolicy(maxTries, time.Millisecond, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("NewPolicy 失敗: %v", err)
	}
	return p
}

func TestIsRateLimitError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("googleapi: Error 429: Too Many Requests"), true},
		{errors.New("rpc error: code = ResourceExhausted"), true},
		{errors.New("quota exceeded for model"), true},
		{errors.New("invalid argument"), false},
		{errors.New("file not found"), false},
	}
	for _, c := range cases {
		if got := IsRateLimitError(c.err); got != c.want {
			t.Errorf("IsRateLimitError(%v) = %v, 期望 %v", c.err, got, c.want)
		}
	}
}

func TestDoRetriesRateLimitThenSucceeds(t *testing.T) {
	p := testPolicy(t, 3)
	var calls int
	err := p.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("429 too many requests")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do 應在第三次成功: %v", err)
	}
	if calls != 3 {
		t.Errorf("呼叫次數 = %d, 期望 3", calls)
	}
}

func TestDoPropagatesNonRetryableImmediately(t *testing.T) {
	p := testPolicy(t, 5)
	permanent := errors.New("malformed input")
	var calls int
	err := p.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("錯誤 = %v, 期望原樣傳回 %v", err, permanent)
	}
	if calls != 1 {
		t.Errorf("非速率限制錯誤不應重試，呼叫次數 = %d", calls)
	}
}

func TestDoExhaustsRetries(t *testing.T) {
	p := testPolicy(t, 3)
	rateLimited := fmt.Errorf("googleapi: Error 429")
	var calls int
	err := p.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		return rateLimited
	})
	if err == nil {
		t.Fatal("重試用盡後應回傳錯誤")
	}
	if !errors.Is(err, rateLimited) {
		t.Errorf("重試用盡的錯誤應包裝最後一次失敗: %v", err)
	}
	if calls != 3 {
		t.Errorf("呼叫次數 = %d, 期望 maxTries=3", calls)
	}
}

func TestDoHonorsContextDuringBackoff(t *testing.T) {
	p, err := NewPolicy(5, time.Second, time.Second)
	if err != nil {
		t.Fatalf("NewPolicy 失敗: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = p.Do(ctx, "op", func(ctx context.Context) error {
		return errors.New("429")
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("錯誤 = %v, 期望 context.DeadlineExceeded", err)
	}
}
