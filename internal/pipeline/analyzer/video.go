package analyzer

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"SocialListing-admin/internal/config"
	"SocialListing-admin/internal/models"
	"SocialListing-admin/internal/pipeline/parser"
	"SocialListing-admin/internal/pipeline/retry"
)

// VideoFetcher 下載貼文影片到本機暫存區並負責清理
type VideoFetcher interface {
	DownloadVideo(ctx context.Context, url string) string
	CleanupScratch(paths ...string)
}

// FrameExtractor 從本機影片檔抽出音軌與畫格
type FrameExtractor interface {
	ExtractAudio(ctx context.Context, videoPath string) (string, error)
	ExtractFrames(ctx context.Context, videoPath string, count int) ([]string, error)
}

// VideoAnalyzer 實作影片管線：下載、抽出音軌與等距畫格、
// 逐格視覺分析加語音轉錄，最後合成一次結構化分析。
// 個別畫格或轉錄失敗不會中斷整條管線；只有下載失敗
// 或完全抽不出畫格才回報錯誤結果。
type VideoAnalyzer struct {
	base
	fetcher             VideoFetcher
	extractor           FrameExtractor
	frameCount          int
	framePrompt         string
	finalPrompt         string
	transcriptionPrompt string
}

func NewVideoAnalyzer(model ModelClient, limiter Limiter, policy retry.Policy, fetcher VideoFetcher, extractor FrameExtractor, frameCount int, prompts config.PromptConfig) (*VideoAnalyzer, error) {
	if model == nil || limiter == nil || fetcher == nil || extractor == nil {
		return nil, fmt.Errorf("VideoAnalyzer 的依賴不得為空")
	}
	if frameCount <= 0 {
		return nil, fmt.Errorf("畫格數量 (%d) 必須為正數", frameCount)
	}

	framePrompt, frameVersion := prompts.FrameAnalysis.Current()
	if framePrompt == "" {
		return nil, fmt.Errorf("畫格分析 Prompt 版本 '%s' 沒有內容", frameVersion)
	}
	finalPrompt, finalVersion := prompts.FinalDescription.Current()
	if finalPrompt == "" {
		return nil, fmt.Errorf("綜合描述 Prompt 版本 '%s' 沒有內容", finalVersion)
	}
	transcriptionPrompt, _ := prompts.Transcription.Current()

	log.Printf("資訊：[VideoAnalyzer] 初始化完成，畫格數：%d，Prompt 版本：frame=%s final=%s", frameCount, frameVersion, finalVersion)
	return &VideoAnalyzer{
		base:                base{model: model, limiter: limiter, retry: policy},
		fetcher:             fetcher,
		extractor:           extractor,
		frameCount:          frameCount,
		framePrompt:         framePrompt,
		finalPrompt:         finalPrompt,
		transcriptionPrompt: transcriptionPrompt,
	}, nil
}

func (a *VideoAnalyzer) Analyze(ctx context.Context, post models.SocialPost) models.AnalysisResult {
	videoPath := a.fetcher.DownloadVideo(ctx, post.ContentURL)
	if videoPath == "" {
		return models.NewErrorAnalysis("影片下載失敗")
	}

	scratch := []string{videoPath}
	defer func() {
		a.fetcher.CleanupScratch(scratch...)
	}()

	transcript := a.transcribe(ctx, post.ID, videoPath, &scratch)

	framePaths, err := a.extractor.ExtractFrames(ctx, videoPath, a.frameCount)
	if err != nil {
		log.Printf("錯誤：[VideoAnalyzer] 貼文 %s 抽取畫格失敗: %v", post.ID, err)
		return models.NewErrorAnalysis(fmt.Sprintf("抽取畫格失敗: %v", err))
	}
	scratch = append(scratch, framePaths...)

	descriptions := a.describeFrames(ctx, post.ID, framePaths)

	raw, err := a.generate(ctx, fmt.Sprintf("影片綜合分析 (%s)", post.ID), func(ctx context.Context) (string, error) {
		return a.model.GenerateText(ctx, a.buildFinalPrompt(descriptions, transcript))
	})
	if err != nil {
		log.Printf("錯誤：[VideoAnalyzer] 貼文 %s 綜合分析失敗: %v", post.ID, err)
		return models.NewErrorAnalysis(fmt.Sprintf("綜合分析失敗: %v", err))
	}

	result := parser.Parse(raw)
	log.Printf("資訊：[VideoAnalyzer] 貼文 %s 分析完成，產品名稱：%s", post.ID, result.ProductName)
	return result
}

// transcribe 抽出音軌並轉錄，任何一步失敗都降級為空字串繼續
func (a *VideoAnalyzer) transcribe(ctx context.Context, postID string, videoPath string, scratch *[]string) string {
	audioPath, err := a.extractor.ExtractAudio(ctx, videoPath)
	if err != nil {
		log.Printf("警告：[VideoAnalyzer] 貼文 %s 抽取音軌失敗，將以無轉錄內容繼續: %v", postID, err)
		return ""
	}
	*scratch = append(*scratch, audioPath)

	audioData, err := os.ReadFile(audioPath)
	if err != nil {
		log.Printf("警告：[VideoAnalyzer] 貼文 %s 讀取音軌檔失敗: %v", postID, err)
		return ""
	}

	transcript, err := a.generate(ctx, fmt.Sprintf("語音轉錄 (%s)", postID), func(ctx context.Context) (string, error) {
		return a.model.GenerateWithAudio(ctx, a.transcriptionPrompt, "audio/wav", audioData)
	})
	if err != nil {
		log.Printf("警告：[VideoAnalyzer] 貼文 %s 語音轉錄失敗，將以無轉錄內容繼續: %v", postID, err)
		return ""
	}
	return strings.TrimSpace(transcript)
}

// describeFrames 逐格呼叫視覺模型；單格失敗以空描述吸收，不中斷後續畫格
func (a *VideoAnalyzer) describeFrames(ctx context.Context, postID string, framePaths []string) []string {
	descriptions := make([]string, 0, len(framePaths))
	for i, framePath := range framePaths {
		frameData, err := os.ReadFile(framePath)
		if err != nil {
			log.Printf("警告：[VideoAnalyzer] 貼文 %s 讀取第 %d 張畫格失敗: %v", postID, i+1, err)
			descriptions = append(descriptions, "")
			continue
		}

		desc, err := a.generate(ctx, fmt.Sprintf("畫格分析 (%s #%d)", postID, i+1), func(ctx context.Context) (string, error) {
			return a.model.GenerateWithImage(ctx, a.framePrompt, "image/jpeg", frameData)
		})
		if err != nil {
			log.Printf("警告：[VideoAnalyzer] 貼文 %s 第 %d 張畫格分析失敗: %v", postID, i+1, err)
			descriptions = append(descriptions, "")
			continue
		}
		descriptions = append(descriptions, strings.TrimSpace(desc))
	}
	return descriptions
}

func (a *VideoAnalyzer) buildFinalPrompt(descriptions []string, transcript string) string {
	var sb strings.Builder
	sb.WriteString(a.finalPrompt)
	sb.WriteString("\nFrame Descriptions:\n")
	for i, desc := range descriptions {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, desc))
	}
	sb.WriteString("\nAudio Transcription:\n")
	sb.WriteString(transcript)
	return sb.String()
}
