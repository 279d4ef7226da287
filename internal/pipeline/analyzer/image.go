package analyzer

import (
	"context"
	"fmt"
	"log"

	"SocialListing-admin/internal/config"
	"SocialListing-admin/internal/models"
	"SocialListing-admin/internal/pipeline/parser"
	"SocialListing-admin/internal/pipeline/retry"
)

// ImageFetcher 下載貼文指向的圖片
type ImageFetcher interface {
	DownloadImage(ctx context.Context, url string) (data []byte, mimeType string, err error)
}

// ImageAnalyzer 下載貼文圖片並交給視覺模型做結構化分析
type ImageAnalyzer struct {
	base
	fetcher ImageFetcher
	prompt  string
}

func NewImageAnalyzer(model ModelClient, limiter Limiter, policy retry.Policy, fetcher ImageFetcher, prompts config.PromptConfig) (*ImageAnalyzer, error) {
	if model == nil || limiter == nil || fetcher == nil {
		return nil, fmt.Errorf("ImageAnalyzer 的依賴不得為空")
	}
	prompt, version := prompts.ImageAnalysis.Current()
	if prompt == "" {
		return nil, fmt.Errorf("圖片分析 Prompt 版本 '%s' 沒有內容", version)
	}
	log.Printf("資訊：[ImageAnalyzer] 初始化完成，使用 Prompt 版本：%s", version)
	return &ImageAnalyzer{
		base:    base{model: model, limiter: limiter, retry: policy},
		fetcher: fetcher,
		prompt:  prompt,
	}, nil
}

func (a *ImageAnalyzer) Analyze(ctx context.Context, post models.SocialPost) models.AnalysisResult {
	imageData, mimeType, err := a.fetcher.DownloadImage(ctx, post.ContentURL)
	if err != nil {
		log.Printf("錯誤：[ImageAnalyzer] 貼文 %s 圖片下載失敗: %v", post.ID, err)
		return models.NewErrorAnalysis(fmt.Sprintf("圖片下載失敗: %v", err))
	}

	raw, err := a.generate(ctx, fmt.Sprintf("圖片分析 (%s)", post.ID), func(ctx context.Context) (string, error) {
		return a.model.GenerateWithImage(ctx, a.prompt, mimeType, imageData)
	})
	if err != nil {
		log.Printf("錯誤：[ImageAnalyzer] 貼文 %s 模型分析失敗: %v", post.ID, err)
		return models.NewErrorAnalysis(fmt.Sprintf("模型分析失敗: %v", err))
	}

	result := parser.Parse(raw)
	log.Printf("資訊：[ImageAnalyzer] 貼文 %s 分析完成，產品名稱：%s", post.ID, result.ProductName)
	return result
}
