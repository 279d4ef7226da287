package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// VersionedPrompt 讓每類 Prompt 可以帶多個版本並指定目前使用的版本
type VersionedPrompt struct {
	CurrentVersion string            `mapstructure:"currentVersion"`
	Versions       map[string]string `mapstructure:"versions"`
}

// Current 回傳目前版本的 Prompt 內容與版本鍵；未設定時內容為空字串。
func (p VersionedPrompt) Current() (string, string) {
	text, ok := p.Versions[p.CurrentVersion]
	if !ok {
		return "", p.CurrentVersion
	}
	return text, p.CurrentVersion
}

// PromptConfig 收納管線各階段使用的 Prompt
type PromptConfig struct {
	ImageAnalysis    VersionedPrompt `mapstructure:"imageAnalysis"`
	TextAnalysis     VersionedPrompt `mapstructure:"textAnalysis"`
	FrameAnalysis    VersionedPrompt `mapstructure:"frameAnalysis"`
	FinalDescription VersionedPrompt `mapstructure:"finalDescription"`
	Transcription    VersionedPrompt `mapstructure:"transcription"`
}

// SchedulerConfig 排程器設定
type SchedulerConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	IngestCronSpec  string `mapstructure:"ingestCronSpec"`
	ProcessCronSpec string `mapstructure:"processCronSpec"`
}

// ServerConfig HTTP 伺服器設定
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// GeminiClientConfig Gemini 客戶端設定
type GeminiClientConfig struct {
	APIKey      string `mapstructure:"apiKey"`
	TextModel   string `mapstructure:"textModel"`
	VisionModel string `mapstructure:"visionModel"`
}

// DatabaseConfig 資料庫連線設定
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbName"`
}

// ArtifactsConfig 原始/處理後產物的檔案系統儲存設定
type ArtifactsConfig struct {
	BasePath string `mapstructure:"basePath"`
}

// MediaConfig 影音下載與抽取設定
type MediaConfig struct {
	TempDir     string `mapstructure:"tempDir"`
	FFmpegPath  string `mapstructure:"ffmpegPath"`
	FFprobePath string `mapstructure:"ffprobePath"`
	YtDlpPath   string `mapstructure:"ytDlpPath"`
	FrameCount  int    `mapstructure:"frameCount"`
}

// RateLimitConfig 令牌桶設定；政策（偏突發或偏均速）由部署調整，不寫死在程式裡
type RateLimitConfig struct {
	TokensPerSecond float64 `mapstructure:"tokensPerSecond"`
	MaxTokens       float64 `mapstructure:"maxTokens"`
}

// RetryConfig 指數退避重試設定
type RetryConfig struct {
	MaxTries      int     `mapstructure:"maxTries"`
	BaseDelaySecs float64 `mapstructure:"baseDelaySecs"`
	MaxDelaySecs  float64 `mapstructure:"maxDelaySecs"`
}

// MatcherConfig 商品匹配的分數權重與門檻，全部可調
type MatcherConfig struct {
	MinScore       int `mapstructure:"minScore"`
	KeywordWeight  int `mapstructure:"keywordWeight"`
	FeatureWeight  int `mapstructure:"featureWeight"`
	PriceWeight    int `mapstructure:"priceWeight"`
	CandidateLimit int `mapstructure:"candidateLimit"`
}

// PipelineConfig 批次協調器設定
type PipelineConfig struct {
	BatchSize           int     `mapstructure:"batchSize"`
	InterBatchPauseSecs float64 `mapstructure:"interBatchPauseSecs"`
	CollectLimit        int     `mapstructure:"collectLimit"`
	ReprocessFailed     bool    `mapstructure:"reprocessFailed"`
}

// RedditSourceConfig 論壇式來源（Reddit 搜尋）設定
type RedditSourceConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	BaseURL   string `mapstructure:"baseURL"`
	Subreddit string `mapstructure:"subreddit"`
	Limit     int    `mapstructure:"limit"`
}

// YouTubeSourceConfig 影音平台來源（YouTube 搜尋）設定
type YouTubeSourceConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"apiKey"`
	BaseURL string `mapstructure:"baseURL"`
	Query   string `mapstructure:"query"`
	Limit   int    `mapstructure:"limit"`
}

// SourcesConfig 所有外部內容來源
type SourcesConfig struct {
	Reddit  RedditSourceConfig  `mapstructure:"reddit"`
	YouTube YouTubeSourceConfig `mapstructure:"youtube"`
}

// Config 應用程式整體設定
type Config struct {
	AppName      string             `mapstructure:"appName"`
	Server       ServerConfig       `mapstructure:"server"`
	GeminiClient GeminiClientConfig `mapstructure:"geminiClient"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Artifacts    ArtifactsConfig    `mapstructure:"artifacts"`
	Media        MediaConfig        `mapstructure:"media"`
	RateLimit    RateLimitConfig    `mapstructure:"rateLimit"`
	Retry        RetryConfig        `mapstructure:"retry"`
	Matcher      MatcherConfig      `mapstructure:"matcher"`
	Pipeline     PipelineConfig     `mapstructure:"pipeline"`
	Sources      SourcesConfig      `mapstructure:"sources"`
	Prompts      PromptConfig       `mapstructure:"prompts"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
}

// Load 讀取設定檔並套用預設值與環境變數覆寫
func Load(configPath string, configName string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(configPath)
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 設定預設值
	v.SetDefault("appName", "SocialListing-DefaultApp")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 3306)
	v.SetDefault("geminiClient.textModel", "gemini-1.5-flash-latest")
	v.SetDefault("geminiClient.visionModel", "gemini-1.5-flash-latest")
	v.SetDefault("artifacts.basePath", "./data/artifacts")
	v.SetDefault("media.tempDir", "./data/tmp")
	v.SetDefault("media.ffmpegPath", "ffmpeg")
	v.SetDefault("media.ffprobePath", "ffprobe")
	v.SetDefault("media.ytDlpPath", "yt-dlp")
	v.SetDefault("media.frameCount", 5)
	v.SetDefault("rateLimit.tokensPerSecond", 0.5)
	v.SetDefault("rateLimit.maxTokens", 5)
	v.SetDefault("retry.maxTries", 3)
	v.SetDefault("retry.baseDelaySecs", 2)
	v.SetDefault("retry.maxDelaySecs", 60)
	v.SetDefault("matcher.minScore", 3)
	v.SetDefault("matcher.keywordWeight", 2)
	v.SetDefault("matcher.featureWeight", 1)
	v.SetDefault("matcher.priceWeight", 3)
	v.SetDefault("matcher.candidateLimit", 10)
	v.SetDefault("pipeline.batchSize", 5)
	v.SetDefault("pipeline.interBatchPauseSecs", 2)
	v.SetDefault("pipeline.collectLimit", 25)
	v.SetDefault("pipeline.reprocessFailed", false)
	v.SetDefault("sources.reddit.enabled", false)
	v.SetDefault("sources.reddit.baseURL", "https://www.reddit.com")
	v.SetDefault("sources.reddit.subreddit", "gadgets")
	v.SetDefault("sources.reddit.limit", 10)
	v.SetDefault("sources.youtube.enabled", false)
	v.SetDefault("sources.youtube.baseURL", "https://www.googleapis.com/youtube/v3")
	v.SetDefault("sources.youtube.query", "product review")
	v.SetDefault("sources.youtube.limit", 5)
	v.SetDefault("prompts.imageAnalysis.currentVersion", "default-v1")
	v.SetDefault("prompts.imageAnalysis.versions.default-v1", defaultImagePrompt)
	v.SetDefault("prompts.textAnalysis.currentVersion", "default-v1")
	v.SetDefault("prompts.textAnalysis.versions.default-v1", defaultTextPrompt)
	v.SetDefault("prompts.frameAnalysis.currentVersion", "default-v1")
	v.SetDefault("prompts.frameAnalysis.versions.default-v1", defaultFramePrompt)
	v.SetDefault("prompts.finalDescription.currentVersion", "default-v1")
	v.SetDefault("prompts.finalDescription.versions.default-v1", defaultFinalDescriptionPrompt)
	v.SetDefault("prompts.transcription.currentVersion", "default-v1")
	v.SetDefault("prompts.transcription.versions.default-v1", defaultTranscriptionPrompt)
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.ingestCronSpec", "0 0 * * * *")
	v.SetDefault("scheduler.processCronSpec", "0 */10 * * * *")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("警告：找不到設定檔，將使用預設值和環境變數。")
		} else {
			return nil, fmt.Errorf("讀取設定檔時發生錯誤: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("無法解析設定檔到結構: %w", err)
	}

	// 啟動期驗證：設定錯誤必須在任何處理開始前失敗
	if cfg.RateLimit.TokensPerSecond <= 0 || cfg.RateLimit.MaxTokens <= 0 {
		return nil, fmt.Errorf("rateLimit 的 tokensPerSecond (%v) 與 maxTokens (%v) 必須為正數",
			cfg.RateLimit.TokensPerSecond, cfg.RateLimit.MaxTokens)
	}
	if cfg.Pipeline.BatchSize <= 0 {
		return nil, fmt.Errorf("pipeline.batchSize (%d) 必須為正數", cfg.Pipeline.BatchSize)
	}
	if cfg.Retry.MaxTries <= 0 {
		return nil, fmt.Errorf("retry.maxTries (%d) 必須為正數", cfg.Retry.MaxTries)
	}
	if cfg.GeminiClient.APIKey == "" {
		fmt.Println("警告：Gemini API Key 未設定！")
	}

	fmt.Println("資訊：設定載入成功。")
	return &cfg, nil
}
