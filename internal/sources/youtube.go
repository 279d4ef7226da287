package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"SocialListing-admin/internal/config"
	"SocialListing-admin/internal/models"
)

// YouTubeSource 透過 YouTube Data API 搜尋端點抓取影片貼文。
type YouTubeSource struct {
	cfg        config.YouTubeSourceConfig
	httpClient *http.Client
}

func NewYouTubeSource(cfg config.YouTubeSourceConfig) (*YouTubeSource, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("YouTube 來源缺少 API 金鑰")
	}
	if cfg.Query == "" {
		return nil, fmt.Errorf("YouTube 來源缺少搜尋關鍵字設定")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.googleapis.com/youtube/v3"
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 10
	}
	return &YouTubeSource{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (s *YouTubeSource) Name() string { return "youtube" }

type youtubeSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title       string    `json:"title"`
			Description string    `json:"description"`
			PublishedAt time.Time `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
}

func (s *YouTubeSource) Fetch(ctx context.Context) ([]models.RawPost, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("q", s.cfg.Query)
	params.Set("maxResults", fmt.Sprintf("%d", s.cfg.Limit))
	params.Set("key", s.cfg.APIKey)
	endpoint := fmt.Sprintf("%s/search?%s", strings.TrimRight(s.cfg.BaseURL, "/"), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("建立 YouTube 搜尋請求失敗: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("搜尋 YouTube 影片失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("YouTube 回應異常：HTTP 狀態碼 %d", resp.StatusCode)
	}

	var result youtubeSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("解析 YouTube 回應失敗: %w", err)
	}

	var posts []models.RawPost
	for _, item := range result.Items {
		if item.ID.VideoID == "" {
			continue
		}

		caption := item.Snippet.Title
		if item.Snippet.Description != "" {
			caption = caption + "\n" + item.Snippet.Description
		}

		posts = append(posts, models.RawPost{
			SourceID:    item.ID.VideoID,
			Platform:    s.Name(),
			ContentType: models.ContentTypeVideo,
			ContentURL:  "https://www.youtube.com/watch?v=" + item.ID.VideoID,
			Caption:     caption,
			Timestamp:   item.Snippet.PublishedAt.UTC(),
		})
	}

	log.Printf("資訊：[Sources] YouTube 搜尋「%s」取得 %d 部影片", s.cfg.Query, len(posts))
	return posts, nil
}
