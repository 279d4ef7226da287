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

// RedditSource 透過公開 JSON 端點抓取指定看板的最新貼文。
type RedditSource struct {
	cfg        config.RedditSourceConfig
	httpClient *http.Client
}

func NewRedditSource(cfg config.RedditSourceConfig) (*RedditSource, error) {
	if cfg.Subreddit == "" {
		return nil, fmt.Errorf("Reddit 來源缺少 subreddit 設定")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.reddit.com"
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 10
	}
	return &RedditSource{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (s *RedditSource) Name() string { return "reddit" }

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				ID        string  `json:"id"`
				Title     string  `json:"title"`
				SelfText  string  `json:"selftext"`
				URL       string  `json:"url"`
				Permalink string  `json:"permalink"`
				IsVideo   bool    `json:"is_video"`
				CreatedAt float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (s *RedditSource) Fetch(ctx context.Context) ([]models.RawPost, error) {
	endpoint := fmt.Sprintf("%s/r/%s/new.json?limit=%d",
		strings.TrimRight(s.cfg.BaseURL, "/"), url.PathEscape(s.cfg.Subreddit), s.cfg.Limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("建立 Reddit 請求失敗: %w", err)
	}
	req.Header.Set("User-Agent", "social-listing-admin/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("查詢 Reddit 看板 %s 失敗: %w", s.cfg.Subreddit, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Reddit 回應異常：HTTP 狀態碼 %d", resp.StatusCode)
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("解析 Reddit 回應失敗: %w", err)
	}

	var posts []models.RawPost
	for _, child := range listing.Data.Children {
		item := child.Data
		if item.ID == "" {
			continue
		}

		contentType := models.ContentTypeText
		contentURL := "https://www.reddit.com" + item.Permalink
		switch {
		case item.IsVideo:
			contentType = models.ContentTypeVideo
			contentURL = item.URL
		case looksLikeImageURL(item.URL):
			contentType = models.ContentTypeImage
			contentURL = item.URL
		}

		caption := item.Title
		if item.SelfText != "" {
			caption = caption + "\n" + item.SelfText
		}

		posts = append(posts, models.RawPost{
			SourceID:    item.ID,
			Platform:    s.Name(),
			ContentType: contentType,
			ContentURL:  contentURL,
			Caption:     caption,
			Timestamp:   time.Unix(int64(item.CreatedAt), 0).UTC(),
		})
	}

	log.Printf("資訊：[Sources] Reddit 看板 %s 取得 %d 筆貼文", s.cfg.Subreddit, len(posts))
	return posts, nil
}

func looksLikeImageURL(raw string) bool {
	lower := strings.ToLower(raw)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".webp"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
