package handlers

import (
	"log"
	"net/http"
	"sync"
)

// IngestRunner 執行一輪來源擷取
type IngestRunner interface {
	Run() error
}

// TriggerIngestHandler 手動觸發來源擷取；同一時間只允許一輪進行
type TriggerIngestHandler struct {
	ingestService IngestRunner
	mu            sync.Mutex
	isIngesting   bool
}

func NewTriggerIngestHandler(is IngestRunner) *TriggerIngestHandler {
	if is == nil {
		log.Panicln("TriggerIngestHandler：IngestRunner 不得為空")
	}
	return &TriggerIngestHandler{ingestService: is}
}

func (h *TriggerIngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log.Printf("資訊：[TriggerIngestHandler] 收到請求: %s %s 來自 %s\n", r.Method, r.URL.Path, r.RemoteAddr)

	if r.Method != http.MethodPost {
		log.Printf("警告：[TriggerIngestHandler] 收到非 POST 請求 (%s)，已拒絕。\n", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "僅支援 POST 方法")
		return
	}

	h.mu.Lock()
	if h.isIngesting {
		h.mu.Unlock()
		log.Println("警告：[TriggerIngestHandler] 擷取已在進行中，拒絕新的觸發。")
		writeError(w, http.StatusConflict, "擷取任務已在進行中，請稍候。")
		return
	}
	h.isIngesting = true
	h.mu.Unlock()

	go func() {
		defer func() {
			h.mu.Lock()
			h.isIngesting = false
			h.mu.Unlock()
			log.Println("資訊：[TriggerIngestHandler] 手動觸發的擷取任務 goroutine 已結束。")
		}()

		log.Println("資訊：[TriggerIngestHandler] 開始執行手動觸發的來源擷取任務...")
		if err := h.ingestService.Run(); err != nil {
			log.Printf("錯誤：[TriggerIngestHandler] 手動觸發的擷取任務執行失敗: %v", err)
		} else {
			log.Println("資訊：[TriggerIngestHandler] 手動觸發的擷取任務執行成功。")
		}
	}()

	writeSuccess(w, http.StatusOK, map[string]interface{}{"message": "來源擷取已觸發，正在背景執行。"})
}
