package analyzer

import (
	"context"

	"SocialListing-admin/internal/models"
	"SocialListing-admin/internal/pipeline/retry"
)

// ModelClient 定義分析器需要的生成式模型操作。
// 具體實作為 clients/gemini.Client，在此定義介面以避免直接依賴 SDK。
type ModelClient interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateWithImage(ctx context.Context, prompt string, mimeType string, imageData []byte) (string, error)
	GenerateWithAudio(ctx context.Context, prompt string, mimeType string, audioData []byte) (string, error)
}

// Limiter 在每次模型呼叫前取得配額，所有分析器共用同一個實例
type Limiter interface {
	Wait(ctx context.Context) error
}

// Analyzer 把一筆貼文轉成結構化分析結果。
// 失敗以 Status 為 error 的結果表示，不以 error 回傳，
// 讓批次協調器能統一依結果狀態計數。
type Analyzer interface {
	Analyze(ctx context.Context, post models.SocialPost) models.AnalysisResult
}

// base 收納所有分析器共用的模型呼叫路徑：先過速率限制、再帶重試執行
type base struct {
	model   ModelClient
	limiter Limiter
	retry   retry.Policy
}

// generate 以速率限制加重試包裝一次模型呼叫。
// 限流等待放在重試回圈內，確保每次重試都重新取得配額。
func (b base) generate(ctx context.Context, name string, call func(ctx context.Context) (string, error)) (string, error) {
	var out string
	err := b.retry.Do(ctx, name, func(ctx context.Context) error {
		if err := b.limiter.Wait(ctx); err != nil {
			return err
		}
		text, err := call(ctx)
		if err != nil {
			return err
		}
		out = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}
