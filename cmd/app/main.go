package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SocialListing-admin/internal/clients/gemini"
	"SocialListing-admin/internal/config"
	"SocialListing-admin/internal/media"
	"SocialListing-admin/internal/models"
	"SocialListing-admin/internal/pipeline/analyzer"
	"SocialListing-admin/internal/pipeline/matcher"
	"SocialListing-admin/internal/pipeline/ratelimit"
	"SocialListing-admin/internal/pipeline/retry"
	"SocialListing-admin/internal/pipeline/synthesizer"
	"SocialListing-admin/internal/scheduler"
	"SocialListing-admin/internal/services"
	"SocialListing-admin/internal/sources"
	"SocialListing-admin/internal/storage/artifacts"
	"SocialListing-admin/internal/storage/mysql"
	"SocialListing-admin/internal/web"
	"SocialListing-admin/internal/web/handlers"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load("./configs", "config")
	if err != nil {
		log.Fatalf("錯誤：無法載入設定: %v", err)
	}
	log.Println("資訊：應用程式設定載入成功。")

	// 資料庫遷移
	migrationPath := "file://scripts/migrate/mysql"
	dbDSNForMigrate := fmt.Sprintf("mysql://%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&multiStatements=true",
		cfg.Database.User, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
	log.Printf("資訊：準備執行資料庫遷移，來源: %s, DSN 使用資料庫: %s", migrationPath, cfg.Database.DBName)
	m, err := migrate.New(migrationPath, dbDSNForMigrate)
	if err != nil {
		log.Fatalf("錯誤：建立遷移實例失敗: %v", err)
	}
	currentVersion, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		log.Fatalf("錯誤：獲取資料庫遷移版本失敗: %v", err)
	}
	if dirty {
		log.Fatalf("錯誤：資料庫處於 dirty 狀態 (版本 %d)，遷移失敗。", currentVersion)
	}
	log.Printf("資訊：目前資料庫版本: %d。開始應用遷移...", currentVersion)
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		log.Fatalf("錯誤：執行資料庫遷移 (m.Up) 失敗: %v", err)
	} else if err == migrate.ErrNoChange {
		log.Println("資訊：資料庫結構已是最新，無需遷移。")
	} else {
		newVersion, _, _ := m.Version()
		log.Printf("資訊：資料庫遷移成功完成，版本更新至: %d。", newVersion)
	}

	artifactStore, err := artifacts.NewFileSystemStore(cfg.Artifacts)
	if err != nil {
		log.Fatalf("錯誤：初始化產物儲存失敗: %v", err)
	}

	var dbStore handlers.DBStore
	realDBStore, err := mysql.NewMySQLStore(cfg.Database)
	if err != nil {
		log.Fatalf("錯誤：初始化 MySQL 資料庫連線失敗: %v", err)
	}
	dbStore = realDBStore
	defer realDBStore.Close()

	geminiClient, err := gemini.NewClient(cfg.GeminiClient.APIKey, cfg.GeminiClient.TextModel, cfg.GeminiClient.VisionModel)
	if err != nil {
		log.Fatalf("錯誤：初始化 Gemini 客戶端失敗: %v", err)
	}

	bucket, err := ratelimit.NewTokenBucket(cfg.RateLimit.TokensPerSecond, cfg.RateLimit.MaxTokens)
	if err != nil {
		log.Fatalf("錯誤：初始化速率限制器失敗: %v", err)
	}
	policy, err := retry.NewPolicy(cfg.Retry.MaxTries,
		time.Duration(cfg.Retry.BaseDelaySecs*float64(time.Second)),
		time.Duration(cfg.Retry.MaxDelaySecs*float64(time.Second)))
	if err != nil {
		log.Fatalf("錯誤：初始化重試策略失敗: %v", err)
	}

	fetcher, err := media.NewFetcher(cfg.Media)
	if err != nil {
		log.Fatalf("錯誤：初始化媒體下載器失敗: %v", err)
	}
	extractor := media.NewExtractor(cfg.Media)

	imageAnalyzer, err := analyzer.NewImageAnalyzer(geminiClient, bucket, policy, fetcher, cfg.Prompts)
	if err != nil {
		log.Fatalf("錯誤：初始化圖片分析器失敗: %v", err)
	}
	textAnalyzer, err := analyzer.NewTextAnalyzer(geminiClient, bucket, policy, cfg.Prompts)
	if err != nil {
		log.Fatalf("錯誤：初始化文字分析器失敗: %v", err)
	}
	videoAnalyzer, err := analyzer.NewVideoAnalyzer(geminiClient, bucket, policy, fetcher, extractor, cfg.Media.FrameCount, cfg.Prompts)
	if err != nil {
		log.Fatalf("錯誤：初始化影片分析器失敗: %v", err)
	}
	analyzers := map[models.ContentType]analyzer.Analyzer{
		models.ContentTypeImage: imageAnalyzer,
		models.ContentTypeText:  textAnalyzer,
		models.ContentTypeVideo: videoAnalyzer,
	}

	processSvc, err := services.NewProcessService(cfg, dbStore, artifactStore, analyzers,
		matcher.New(cfg.Matcher), synthesizer.New(dbStore), geminiClient)
	if err != nil {
		log.Fatalf("錯誤：初始化批次處理服務失敗: %v", err)
	}

	var contentSources []sources.Source
	if cfg.Sources.Reddit.Enabled {
		redditSrc, err := sources.NewRedditSource(cfg.Sources.Reddit)
		if err != nil {
			log.Fatalf("錯誤：初始化 Reddit 來源失敗: %v", err)
		}
		contentSources = append(contentSources, redditSrc)
	}
	if cfg.Sources.YouTube.Enabled {
		youtubeSrc, err := sources.NewYouTubeSource(cfg.Sources.YouTube)
		if err != nil {
			log.Fatalf("錯誤：初始化 YouTube 來源失敗: %v", err)
		}
		contentSources = append(contentSources, youtubeSrc)
	}

	var ingestSvc *services.IngestService
	var ingestRunner handlers.IngestRunner
	if len(contentSources) > 0 {
		ingestSvc, err = services.NewIngestService(cfg, dbStore, contentSources)
		if err != nil {
			log.Fatalf("錯誤：初始化來源擷取服務失敗: %v", err)
		}
		ingestRunner = ingestSvc
	} else {
		log.Println("資訊：未啟用任何內容來源，僅接受手動上傳。")
	}

	if cfg.Scheduler.Enabled {
		log.Println("資訊：排程器已在設定檔中啟用，正在初始化...")
		appScheduler := scheduler.NewScheduler(
			ingestSvc,
			processSvc,
			cfg.Scheduler.IngestCronSpec,
			cfg.Scheduler.ProcessCronSpec,
		)
		appScheduler.Start()
		log.Println("資訊：排程器已啟動。")
		defer appScheduler.Stop()
	} else {
		log.Println("資訊：排程器已在設定檔中禁用。")
	}

	router := web.SetupRouter(dbStore, processSvc, processSvc, ingestRunner, artifactStore)
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		log.Printf("資訊：HTTP 伺服器正在監聽 %s\n", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("錯誤：HTTP 伺服器監聽失敗: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("資訊：收到關閉訊號，正在關閉應用程式...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("錯誤：HTTP 伺服器優雅關閉失敗: %v", err)
	}
	log.Println("資訊：HTTP 伺服器已關閉。")
	log.Println("資訊：應用程式已成功關閉。")
}
