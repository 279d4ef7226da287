package handlers

import (
	"log"
	"net/http"
)

// StatusHandler 查詢單筆貼文的處理進度與分析結果
type StatusHandler struct {
	db DBStore
}

func NewStatusHandler(db DBStore) *StatusHandler {
	if db == nil {
		log.Panicln("StatusHandler：DBStore 不得為空")
	}
	return &StatusHandler{db: db}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "僅支援 GET 方法")
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "缺少 id 參數")
		return
	}

	post, err := h.db.GetPostByID(id)
	if err != nil {
		log.Printf("錯誤：[StatusHandler] 查詢貼文 %s 失敗: %v", id, err)
		writeError(w, http.StatusInternalServerError, "查詢貼文失敗")
		return
	}
	if post == nil {
		writeError(w, http.StatusNotFound, "找不到指定的貼文")
		return
	}

	processingStatus := "pending"
	switch {
	case post.Processed:
		processingStatus = "processed"
	case post.ErrorMessage.Valid:
		processingStatus = "failed"
	}

	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"post":              post,
		"processing_status": processingStatus,
	})
}
