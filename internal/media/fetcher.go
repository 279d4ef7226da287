package media

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"SocialListing-admin/internal/config"
)

// Fetcher 負責把貼文連結指向的媒體抓回本機暫存區。
// 圖片直接走 HTTP 下載，影片透過 yt-dlp 處理各平台的串流網址。
type Fetcher struct {
	cfg        config.MediaConfig
	httpClient *http.Client
}

func NewFetcher(cfg config.MediaConfig) (*Fetcher, error) {
	if err := os.MkdirAll(cfg.TempDir, 0755); err != nil {
		return nil, fmt.Errorf("建立媒體暫存目錄 %s 失敗: %w", cfg.TempDir, err)
	}
	return &Fetcher{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// DownloadImage 下載圖片並回傳原始位元組與 MIME 型別。
func (f *Fetcher) DownloadImage(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("建立圖片下載請求失敗: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("下載圖片 %s 失敗: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("下載圖片 %s 失敗：HTTP 狀態碼 %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("讀取圖片內容失敗: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("圖片 %s 內容為空", url)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" || !strings.HasPrefix(mimeType, "image/") {
		mimeType = guessImageMIME(url)
	}

	log.Printf("資訊：[Media] 已下載圖片 %s（%d bytes, %s）", url, len(data), mimeType)
	return data, mimeType, nil
}

// DownloadVideo 透過 yt-dlp 將影片下載到暫存區，回傳本機檔案路徑。
// 下載失敗時回傳空字串，由呼叫端決定如何標記該貼文。
func (f *Fetcher) DownloadVideo(ctx context.Context, url string) string {
	outPath := filepath.Join(f.cfg.TempDir, fmt.Sprintf("video_%d.mp4", time.Now().UnixNano()))

	cmd := commandContext(ctx, f.cfg.YtDlpPath,
		"--quiet",
		"--no-playlist",
		"-f", "mp4/bestvideo+bestaudio/best",
		"--merge-output-format", "mp4",
		"-o", outPath,
		url,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		log.Printf("警告：[Media] yt-dlp 下載 %s 失敗: %v，輸出: %s", url, err, strings.TrimSpace(string(output)))
		os.Remove(outPath)
		return ""
	}

	info, err := os.Stat(outPath)
	if err != nil || info.Size() == 0 {
		log.Printf("警告：[Media] 影片 %s 下載後檔案不存在或為空", url)
		os.Remove(outPath)
		return ""
	}

	log.Printf("資訊：[Media] 已下載影片 %s 至 %s（%d bytes）", url, outPath, info.Size())
	return outPath
}

// CleanupScratch 移除一批暫存檔，下載與抽取流程結束後一律呼叫。
func (f *Fetcher) CleanupScratch(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.Printf("警告：[Media] 移除暫存檔 %s 失敗: %v", p, err)
		}
	}
}

func guessImageMIME(url string) string {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, ".png"):
		return "image/png"
	case strings.Contains(lower, ".gif"):
		return "image/gif"
	case strings.Contains(lower, ".webp"):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
