package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"SocialListing-admin/internal/models"

	"github.com/google/uuid"
)

// PostProcessor 對單一貼文執行完整分析管線（分析、匹配、合成刊登）
type PostProcessor interface {
	ProcessPost(ctx context.Context, post models.SocialPost) error
}

// uploadRequest 是手動上傳貼文的請求格式
type uploadRequest struct {
	Platform    string `json:"platform"`
	ContentType string `json:"content_type"`
	ContentURL  string `json:"content_url"`
	Caption     string `json:"caption"`
}

// UploadHandler 接收單筆貼文、入庫後在背景啟動分析管線
type UploadHandler struct {
	db        DBStore
	processor PostProcessor
}

func NewUploadHandler(db DBStore, processor PostProcessor) *UploadHandler {
	if db == nil || processor == nil {
		log.Panicln("UploadHandler：DBStore 與 PostProcessor 不得為空")
	}
	return &UploadHandler{db: db, processor: processor}
}

func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log.Printf("資訊：[UploadHandler] 收到請求: %s %s 來自 %s\n", r.Method, r.URL.Path, r.RemoteAddr)

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "僅支援 POST 方法")
		return
	}

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "無法解析請求內容")
		return
	}

	contentType := models.ContentType(req.ContentType)
	switch contentType {
	case models.ContentTypeImage, models.ContentTypeVideo, models.ContentTypeText:
	default:
		writeError(w, http.StatusBadRequest, "content_type 必須為 image、video 或 text")
		return
	}
	if contentType == models.ContentTypeText && req.Caption == "" {
		writeError(w, http.StatusBadRequest, "文字貼文必須提供 caption")
		return
	}
	if contentType != models.ContentTypeText && req.ContentURL == "" {
		writeError(w, http.StatusBadRequest, "圖片與影片貼文必須提供 content_url")
		return
	}

	platform := req.Platform
	if platform == "" {
		platform = "manual"
	}

	post := models.SocialPost{
		ID:          uuid.NewString(),
		Platform:    platform,
		SourceID:    "manual-" + uuid.NewString(),
		ContentType: contentType,
		ContentURL:  req.ContentURL,
		Caption:     req.Caption,
		Timestamp:   time.Now().UTC(),
	}
	if err := h.db.InsertPost(&post); err != nil {
		log.Printf("錯誤：[UploadHandler] 貼文入庫失敗: %v", err)
		writeError(w, http.StatusInternalServerError, "貼文入庫失敗")
		return
	}

	go func() {
		log.Printf("資訊：[UploadHandler] 開始在背景處理貼文 %s...", post.ID)
		if err := h.processor.ProcessPost(context.Background(), post); err != nil {
			log.Printf("錯誤：[UploadHandler] 背景處理貼文 %s 失敗: %v", post.ID, err)
		}
	}()

	writeSuccess(w, http.StatusAccepted, map[string]interface{}{
		"id":      post.ID,
		"message": "貼文已接收，正在背景分析。",
	})
}
