package main

import (
	"flag"
	"log"
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
	"SocialListing-admin/internal/services"
	"SocialListing-admin/internal/sources"
	"SocialListing-admin/internal/storage/artifacts"
	"SocialListing-admin/internal/storage/mysql"
)

// runbatch 一次性執行完整的擷取加批次處理流程，適合 cron 外掛或手動補跑。
func main() {
	withIngest := flag.Bool("ingest", false, "處理前先執行一輪來源擷取")
	configPath := flag.String("config", "./configs", "設定檔目錄")
	flag.Parse()

	cfg, err := config.Load(*configPath, "config")
	if err != nil {
		log.Fatalf("無法載入配置: %v", err)
	}

	db, err := mysql.NewMySQLStore(cfg.Database)
	if err != nil {
		log.Fatalf("無法連接到資料庫: %v", err)
	}
	defer db.Close()

	artifactStore, err := artifacts.NewFileSystemStore(cfg.Artifacts)
	if err != nil {
		log.Fatalf("無法初始化產物儲存: %v", err)
	}

	geminiClient, err := gemini.NewClient(cfg.GeminiClient.APIKey, cfg.GeminiClient.TextModel, cfg.GeminiClient.VisionModel)
	if err != nil {
		log.Fatalf("無法初始化 Gemini 客戶端: %v", err)
	}

	bucket, err := ratelimit.NewTokenBucket(cfg.RateLimit.TokensPerSecond, cfg.RateLimit.MaxTokens)
	if err != nil {
		log.Fatalf("無法初始化速率限制器: %v", err)
	}
	policy, err := retry.NewPolicy(cfg.Retry.MaxTries,
		time.Duration(cfg.Retry.BaseDelaySecs*float64(time.Second)),
		time.Duration(cfg.Retry.MaxDelaySecs*float64(time.Second)))
	if err != nil {
		log.Fatalf("無法初始化重試策略: %v", err)
	}

	fetcher, err := media.NewFetcher(cfg.Media)
	if err != nil {
		log.Fatalf("無法初始化媒體下載器: %v", err)
	}
	extractor := media.NewExtractor(cfg.Media)

	imageAnalyzer, err := analyzer.NewImageAnalyzer(geminiClient, bucket, policy, fetcher, cfg.Prompts)
	if err != nil {
		log.Fatalf("無法初始化圖片分析器: %v", err)
	}
	textAnalyzer, err := analyzer.NewTextAnalyzer(geminiClient, bucket, policy, cfg.Prompts)
	if err != nil {
		log.Fatalf("無法初始化文字分析器: %v", err)
	}
	videoAnalyzer, err := analyzer.NewVideoAnalyzer(geminiClient, bucket, policy, fetcher, extractor, cfg.Media.FrameCount, cfg.Prompts)
	if err != nil {
		log.Fatalf("無法初始化影片分析器: %v", err)
	}

	analyzers := map[models.ContentType]analyzer.Analyzer{
		models.ContentTypeImage: imageAnalyzer,
		models.ContentTypeText:  textAnalyzer,
		models.ContentTypeVideo: videoAnalyzer,
	}

	if *withIngest {
		var contentSources []sources.Source
		if cfg.Sources.Reddit.Enabled {
			redditSrc, err := sources.NewRedditSource(cfg.Sources.Reddit)
			if err != nil {
				log.Fatalf("無法初始化 Reddit 來源: %v", err)
			}
			contentSources = append(contentSources, redditSrc)
		}
		if cfg.Sources.YouTube.Enabled {
			youtubeSrc, err := sources.NewYouTubeSource(cfg.Sources.YouTube)
			if err != nil {
				log.Fatalf("無法初始化 YouTube 來源: %v", err)
			}
			contentSources = append(contentSources, youtubeSrc)
		}
		if len(contentSources) == 0 {
			log.Fatalln("指定了 -ingest 但設定檔中沒有啟用任何內容來源")
		}

		ingestSvc, err := services.NewIngestService(cfg, db, contentSources)
		if err != nil {
			log.Fatalf("無法初始化來源擷取服務: %v", err)
		}
		if err := ingestSvc.Run(); err != nil {
			log.Fatalf("來源擷取執行失敗: %v", err)
		}
	}

	processSvc, err := services.NewProcessService(cfg, db, artifactStore, analyzers,
		matcher.New(cfg.Matcher), synthesizer.New(db), geminiClient)
	if err != nil {
		log.Fatalf("無法初始化批次處理服務: %v", err)
	}
	if err := processSvc.Run(); err != nil {
		log.Fatalf("批次處理執行失敗: %v", err)
	}

	log.Println("資訊：批次流程全部完成。")
}
