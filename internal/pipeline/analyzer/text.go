package analyzer

import (
	"context"
	"fmt"
	"log"
	"strings"

	"SocialListing-admin/internal/config"
	"SocialListing-admin/internal/models"
	"SocialListing-admin/internal/pipeline/parser"
	"SocialListing-admin/internal/pipeline/retry"
)

// TextAnalyzer 把純文字貼文內容交給文字模型做結構化分析
type TextAnalyzer struct {
	base
	prompt string
}

func NewTextAnalyzer(model ModelClient, limiter Limiter, policy retry.Policy, prompts config.PromptConfig) (*TextAnalyzer, error) {
	if model == nil || limiter == nil {
		return nil, fmt.Errorf("TextAnalyzer 的依賴不得為空")
	}
	prompt, version := prompts.TextAnalysis.Current()
	if prompt == "" {
		return nil, fmt.Errorf("文字分析 Prompt 版本 '%s' 沒有內容", version)
	}
	log.Printf("資訊：[TextAnalyzer] 初始化完成，使用 Prompt 版本：%s", version)
	return &TextAnalyzer{
		base:   base{model: model, limiter: limiter, retry: policy},
		prompt: prompt,
	}, nil
}

func (a *TextAnalyzer) Analyze(ctx context.Context, post models.SocialPost) models.AnalysisResult {
	content := strings.TrimSpace(post.Caption)
	if content == "" {
		return models.NewErrorAnalysis("貼文文字內容為空，無法分析")
	}

	raw, err := a.generate(ctx, fmt.Sprintf("文字分析 (%s)", post.ID), func(ctx context.Context) (string, error) {
		return a.model.GenerateText(ctx, a.prompt+content)
	})
	if err != nil {
		log.Printf("錯誤：[TextAnalyzer] 貼文 %s 模型分析失敗: %v", post.ID, err)
		return models.NewErrorAnalysis(fmt.Sprintf("模型分析失敗: %v", err))
	}

	result := parser.Parse(raw)
	log.Printf("資訊：[TextAnalyzer] 貼文 %s 分析完成，產品名稱：%s", post.ID, result.ProductName)
	return result
}
