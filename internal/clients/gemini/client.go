package gemini

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Client 結構用於與 Gemini API 互動。
// 整個程序只建立一個實例，由各分析器共用（唯一的進入管制點是外層的令牌桶）。
type Client struct {
	textModel   *genai.GenerativeModel
	visionModel *genai.GenerativeModel

	callCount  atomic.Int64
	errorCount atomic.Int64
}

// NewClient 建立一個 Gemini 客戶端實例
func NewClient(apiKey string, textModelName string, visionModelName string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API Key 不得為空")
	}
	if textModelName == "" {
		textModelName = "gemini-1.5-flash-latest"
		log.Printf("警告：[Gemini Client] 未提供文本模型名稱，使用預設值: %s\n", textModelName)
	}
	if visionModelName == "" {
		visionModelName = "gemini-1.5-flash-latest"
		log.Printf("警告：[Gemini Client] 未提供視覺模型名稱，使用預設值: %s\n", visionModelName)
	}

	ctx := context.Background()
	genaiSDKClient, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("無法建立 Gemini GenAI SDK 客戶端: %w", err)
	}

	txtModel := genaiSDKClient.GenerativeModel(textModelName)
	log.Printf("資訊：[Gemini Client] 文本模型 '%s' 初始化成功。\n", textModelName)
	visModel := genaiSDKClient.GenerativeModel(visionModelName)
	log.Printf("資訊：[Gemini Client] 視覺模型 '%s' 初始化成功。\n", visionModelName)

	return &Client{
		textModel:   txtModel,
		visionModel: visModel,
	}, nil
}

// Counters 回傳累計的 API 呼叫次數與失敗次數，供批次報告取差值。
func (c *Client) Counters() (calls int64, errors int64) {
	return c.callCount.Load(), c.errorCount.Load()
}

// GenerateText 以純文字 Prompt 呼叫模型，回傳原始文字回應
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	log.Printf("資訊：[Gemini Client] GenerateText - 使用 Prompt (前100字元): %s...\n", firstNChars(prompt, 100))
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("Prompt 不得為空")
	}
	return c.generate(ctx, c.textModel, genai.Text(prompt))
}

// GenerateWithImage 以 Prompt 加上一張圖片呼叫視覺模型
func (c *Client) GenerateWithImage(ctx context.Context, prompt string, mimeType string, imageData []byte) (string, error) {
	log.Printf("資訊：[Gemini Client] GenerateWithImage - 圖片大小: %d bytes, MIME: %s\n", len(imageData), mimeType)
	if len(imageData) == 0 {
		return "", fmt.Errorf("圖片數據不得為空")
	}
	blob := genai.Blob{MIMEType: mimeType, Data: imageData}
	return c.generate(ctx, c.visionModel, genai.Text(prompt), blob)
}

// GenerateWithAudio 以 Prompt 加上一段音訊呼叫視覺模型（用於轉錄）
func (c *Client) GenerateWithAudio(ctx context.Context, prompt string, mimeType string, audioData []byte) (string, error) {
	log.Printf("資訊：[Gemini Client] GenerateWithAudio - 音訊大小: %d bytes, MIME: %s\n", len(audioData), mimeType)
	if len(audioData) == 0 {
		return "", fmt.Errorf("音訊數據不得為空")
	}
	blob := genai.Blob{MIMEType: mimeType, Data: audioData}
	return c.generate(ctx, c.visionModel, genai.Text(prompt), blob)
}

// generate 發送請求並萃取回應文字
func (c *Client) generate(ctx context.Context, model *genai.GenerativeModel, parts ...genai.Part) (string, error) {
	c.callCount.Add(1)
	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		c.errorCount.Add(1)
		return "", fmt.Errorf("Gemini API GenerateContent 失敗: %w", err)
	}
	text, err := extractResponseText(resp)
	if err != nil {
		c.errorCount.Add(1)
		return "", err
	}
	return text, nil
}

// extractResponseText 從回應中取出候選文字，並處理被安全機制攔截的情況
func extractResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("Gemini API 回應無效或為空 (nil response or no candidates)")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		if candidate.FinishReason != genai.FinishReasonStop && candidate.FinishReason != genai.FinishReasonUnspecified {
			if candidate.SafetyRatings != nil {
				for _, rating := range candidate.SafetyRatings {
					log.Printf("警告：[Gemini Client] 安全評級 - Category: %s, Probability: %s\n", rating.Category, rating.Probability)
				}
			}
			return "", fmt.Errorf("Gemini API 回應內容被阻止，原因: %s", candidate.FinishReason.String())
		}
		return "", fmt.Errorf("Gemini API 回應無效或為空 (no content parts, FinishReason: %s)", candidate.FinishReason.String())
	}
	var responseTextBuilder strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseTextBuilder.WriteString(string(txt))
		} else {
			log.Printf("警告：[Gemini Client] 收到非預期的 Part 類型: %T\n", part)
		}
	}
	raw := responseTextBuilder.String()
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("Gemini API 回傳的文字內容為空")
	}
	return raw, nil
}

// firstNChars 輔助函式，避免日誌截斷多位元組字元
func firstNChars(s string, n int) string {
	if len(s) > n && n > 0 {
		runes := []rune(s)
		if len(runes) > n {
			return string(runes[:n])
		}
	}
	return s
}
