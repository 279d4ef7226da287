package media

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"SocialListing-admin/internal/config"
)

// Extractor 以 ffmpeg 從本機影片檔抽出音軌與等距畫格。
type Extractor struct {
	cfg config.MediaConfig
}

func NewExtractor(cfg config.MediaConfig) *Extractor {
	return &Extractor{cfg: cfg}
}

// ExtractAudio 抽出影片音軌並轉成 16kHz 單聲道 WAV，回傳音檔路徑。
func (e *Extractor) ExtractAudio(ctx context.Context, videoPath string) (string, error) {
	audioPath := filepath.Join(e.cfg.TempDir, fmt.Sprintf("audio_%d.wav", time.Now().UnixNano()))

	cmd := commandContext(ctx, e.cfg.FFmpegPath,
		"-y",
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		audioPath,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		os.Remove(audioPath)
		return "", fmt.Errorf("ffmpeg 抽取音軌失敗: %w，輸出: %s", err, strings.TrimSpace(string(output)))
	}

	info, err := os.Stat(audioPath)
	if err != nil || info.Size() == 0 {
		os.Remove(audioPath)
		return "", fmt.Errorf("音軌檔案不存在或為空：%s", audioPath)
	}
	return audioPath, nil
}

// ExtractFrames 從影片等距取出 count 張畫格，回傳 JPEG 檔案路徑。
// 個別畫格抽取失敗時略過該格，全部失敗時回傳錯誤。
func (e *Extractor) ExtractFrames(ctx context.Context, videoPath string, count int) ([]string, error) {
	if count <= 0 {
		return nil, fmt.Errorf("畫格數量必須為正數，收到 %d", count)
	}

	duration, err := e.probeDuration(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("取得影片長度失敗: %w", err)
	}

	var frames []string
	for i := 0; i < count; i++ {
		// 取每個等分區段的中點，避免抽到片頭黑畫面或片尾。
		offset := duration * (float64(i) + 0.5) / float64(count)
		framePath := filepath.Join(e.cfg.TempDir, fmt.Sprintf("frame_%d_%d.jpg", time.Now().UnixNano(), i))

		cmd := commandContext(ctx, e.cfg.FFmpegPath,
			"-y",
			"-ss", fmt.Sprintf("%.3f", offset),
			"-i", videoPath,
			"-frames:v", "1",
			"-q:v", "2",
			framePath,
		)
		if output, err := cmd.CombinedOutput(); err != nil {
			log.Printf("警告：[Media] 抽取第 %d 張畫格（%.3fs）失敗: %v，輸出: %s", i+1, offset, err, strings.TrimSpace(string(output)))
			os.Remove(framePath)
			continue
		}
		if info, err := os.Stat(framePath); err != nil || info.Size() == 0 {
			log.Printf("警告：[Media] 第 %d 張畫格檔案不存在或為空", i+1)
			os.Remove(framePath)
			continue
		}
		frames = append(frames, framePath)
	}

	if len(frames) == 0 {
		return nil, fmt.Errorf("影片 %s 無法抽出任何畫格", videoPath)
	}
	return frames, nil
}

func (e *Extractor) probeDuration(ctx context.Context, videoPath string) (float64, error) {
	cmd := commandContext(ctx, e.cfg.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe 執行失敗: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("解析影片長度 %q 失敗: %w", strings.TrimSpace(string(output)), err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("影片長度異常：%f 秒", duration)
	}
	return duration, nil
}
