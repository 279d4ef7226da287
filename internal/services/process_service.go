package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"SocialListing-admin/internal/config"
	"SocialListing-admin/internal/models"
	"SocialListing-admin/internal/pipeline/analyzer"
	"SocialListing-admin/internal/pipeline/matcher"
	"SocialListing-admin/internal/pipeline/synthesizer"
	"SocialListing-admin/internal/web/handlers"
)

// ProcessService 是批次協調器：收集待處理貼文、分批併發跑完整
// 分析管線（分析、匹配、合成刊登），最後彙總統計寫成報告。
// 統計只在每批收攏後的單一彙總點更新，工作 goroutine 不碰共享狀態。
type ProcessService struct {
	cfg         *config.Config
	db          handlers.DBStore
	artifacts   ArtifactStore
	analyzers   map[models.ContentType]analyzer.Analyzer
	matcher     *matcher.Matcher
	synthesizer *synthesizer.Synthesizer
	counters    ModelCounters
}

func NewProcessService(
	cfg *config.Config,
	db handlers.DBStore,
	artifacts ArtifactStore,
	analyzers map[models.ContentType]analyzer.Analyzer,
	m *matcher.Matcher,
	syn *synthesizer.Synthesizer,
	counters ModelCounters,
) (*ProcessService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("ProcessService：設定不得為空")
	}
	if db == nil {
		return nil, fmt.Errorf("ProcessService：DBStore 不得為空")
	}
	if artifacts == nil {
		return nil, fmt.Errorf("ProcessService：ArtifactStore 不得為空")
	}
	if len(analyzers) == 0 {
		return nil, fmt.Errorf("ProcessService：至少需要一個分析器")
	}
	if m == nil || syn == nil {
		return nil, fmt.Errorf("ProcessService：Matcher 與 Synthesizer 不得為空")
	}
	log.Println("資訊：ProcessService 初始化完成。")
	return &ProcessService{
		cfg:         cfg,
		db:          db,
		artifacts:   artifacts,
		analyzers:   analyzers,
		matcher:     m,
		synthesizer: syn,
		counters:    counters,
	}, nil
}

// Run 執行一輪批次處理
func (s *ProcessService) Run() error {
	ctx := context.Background()
	metrics := models.ProcessingMetrics{StartTime: time.Now().UTC()}

	var callsBefore, errorsBefore int64
	if s.counters != nil {
		callsBefore, errorsBefore = s.counters.Counters()
	}

	posts, err := s.db.GetUnprocessedPosts(s.cfg.Pipeline.CollectLimit, s.cfg.Pipeline.ReprocessFailed)
	if err != nil {
		return fmt.Errorf("收集待處理貼文失敗: %w", err)
	}
	metrics.TotalPosts = len(posts)
	if len(posts) == 0 {
		log.Println("資訊：[ProcessService] 沒有待處理貼文，本輪結束。")
		return nil
	}
	log.Printf("資訊：[ProcessService] 本輪共 %d 筆貼文，批次大小 %d。", len(posts), s.cfg.Pipeline.BatchSize)

	batchSize := s.cfg.Pipeline.BatchSize
	pause := time.Duration(s.cfg.Pipeline.InterBatchPauseSecs * float64(time.Second))

	for start := 0; start < len(posts); start += batchSize {
		end := start + batchSize
		if end > len(posts) {
			end = len(posts)
		}
		batch := posts[start:end]

		type outcome struct {
			postID string
			err    error
		}
		results := make(chan outcome, len(batch))
		for _, post := range batch {
			go func(p models.SocialPost) {
				results <- outcome{postID: p.ID, err: s.ProcessPost(ctx, p)}
			}(post)
		}

		// 單一彙總點：等整批收攏後才更新統計
		for range batch {
			r := <-results
			if r.err != nil {
				metrics.FailedPosts++
				log.Printf("警告：[ProcessService] 貼文 %s 處理失敗: %v", r.postID, r.err)
			} else {
				metrics.SuccessfulPosts++
			}
		}

		if end < len(posts) && pause > 0 {
			log.Printf("資訊：[ProcessService] 批次完成（%d/%d），暫停 %s 後繼續。", end, len(posts), pause)
			time.Sleep(pause)
		}
	}

	metrics.EndTime = time.Now().UTC()
	if s.counters != nil {
		callsAfter, errorsAfter := s.counters.Counters()
		metrics.APICalls = callsAfter - callsBefore
		metrics.APIErrors = errorsAfter - errorsBefore
	}

	if err := s.db.InsertProcessingReport(&metrics); err != nil {
		log.Printf("錯誤：[ProcessService] 儲存批次報告失敗: %v", err)
	}
	reportID := metrics.StartTime.Format("20060102-150405")
	if _, err := s.artifacts.SaveJSON("reports", reportID, &metrics); err != nil {
		log.Printf("警告：[ProcessService] 批次報告落地失敗: %v", err)
	}

	log.Printf("資訊：[ProcessService] 本輪批次處理完成。%s", metrics.Summary())
	return nil
}

// ProcessPost 對單一貼文執行完整管線：分析、匹配、合成並寫入刊登。
// 任何一步失敗都會在貼文上留下失敗原因；只有全部成功才標記 processed。
func (s *ProcessService) ProcessPost(ctx context.Context, post models.SocialPost) error {
	a, ok := s.analyzers[post.ContentType]
	if !ok {
		err := fmt.Errorf("不支援的內容類型: %s", post.ContentType)
		s.markFailed(post.ID, err.Error())
		return err
	}

	result := a.Analyze(ctx, post)
	if _, err := s.artifacts.SaveJSON("analyses", post.ID, &result); err != nil {
		log.Printf("警告：[ProcessService] 貼文 %s 分析產物落地失敗: %v", post.ID, err)
	}
	if result.Status != models.AnalysisStatusSuccess {
		err := fmt.Errorf("分析失敗: %s", result.ErrorMessage)
		s.markFailed(post.ID, result.ErrorMessage)
		return err
	}

	candidates, err := s.db.GetReferencesByCategory(result.Category, s.cfg.Matcher.CandidateLimit)
	if err != nil {
		err = fmt.Errorf("查詢產品參考目錄失敗: %w", err)
		s.markFailed(post.ID, err.Error())
		return err
	}

	reference := s.matcher.Match(result, candidates)
	if reference == nil {
		err := fmt.Errorf("找不到匹配的產品參考 (分類: %s)", result.Category)
		s.markFailed(post.ID, err.Error())
		return err
	}

	listing := s.synthesizer.Synthesize(result, reference, post.ID)
	listingID, err := s.db.InsertListing(&listing)
	if err != nil {
		err = fmt.Errorf("寫入刊登失敗: %w", err)
		s.markFailed(post.ID, err.Error())
		return err
	}

	analysisJSON, err := json.Marshal(&result)
	if err != nil {
		err = fmt.Errorf("序列化分析結果失敗: %w", err)
		s.markFailed(post.ID, err.Error())
		return err
	}
	if err := s.db.MarkPostProcessed(post.ID, analysisJSON, reference.ID); err != nil {
		return fmt.Errorf("標記貼文完成失敗: %w", err)
	}

	log.Printf("資訊：[ProcessService] 貼文 %s 處理完成，刊登 ID: %d。", post.ID, listingID)
	return nil
}

func (s *ProcessService) markFailed(postID string, message string) {
	if err := s.db.MarkPostFailed(postID, message); err != nil {
		log.Printf("錯誤：[ProcessService] 記錄貼文 %s 失敗原因時發生錯誤: %v", postID, err)
	}
}
