package services

import (
	"context"
	"fmt"
	"log"

	"SocialListing-admin/internal/config"
	"SocialListing-admin/internal/models"
	"SocialListing-admin/internal/sources"
	"SocialListing-admin/internal/web/handlers"

	"github.com/google/uuid"
)

// IngestService 負責從各外部來源擷取貼文並入庫。
// 單一來源失敗只記錄並跳過，不影響其他來源。
type IngestService struct {
	cfg     *config.Config
	db      handlers.DBStore
	sources []sources.Source
}

func NewIngestService(cfg *config.Config, db handlers.DBStore, srcs []sources.Source) (*IngestService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("IngestService：設定不得為空")
	}
	if db == nil {
		return nil, fmt.Errorf("IngestService：DBStore 不得為空")
	}
	if len(srcs) == 0 {
		return nil, fmt.Errorf("IngestService：至少需要一個內容來源")
	}
	log.Printf("資訊：IngestService 初始化完成，共 %d 個來源。", len(srcs))
	return &IngestService{cfg: cfg, db: db, sources: srcs}, nil
}

// Run 執行一輪來源擷取
func (s *IngestService) Run() error {
	ctx := context.Background()
	log.Println("資訊：[IngestService] 開始執行來源擷取...")

	totalFetched := 0
	totalInserted := 0
	for _, src := range s.sources {
		rawPosts, err := src.Fetch(ctx)
		if err != nil {
			log.Printf("錯誤：[IngestService] 來源 %s 擷取失敗，跳過: %v", src.Name(), err)
			continue
		}
		totalFetched += len(rawPosts)

		for _, raw := range rawPosts {
			post := models.SocialPost{
				ID:          uuid.NewString(),
				Platform:    raw.Platform,
				SourceID:    raw.SourceID,
				ContentType: raw.ContentType,
				ContentURL:  raw.ContentURL,
				Caption:     raw.Caption,
				Timestamp:   raw.Timestamp,
			}
			created, err := s.db.InsertPostIfNew(&post)
			if err != nil {
				log.Printf("錯誤：[IngestService] 貼文入庫失敗 (來源 %s, ID %s): %v", raw.Platform, raw.SourceID, err)
				continue
			}
			if created {
				totalInserted++
			}
		}
	}

	log.Printf("資訊：[IngestService] 擷取完成，取得 %d 筆、新增 %d 筆。", totalFetched, totalInserted)
	return nil
}
