package handlers

import (
	"log"
	"net/http"
	"sync"
)

// ProcessRunner 執行一輪批次處理
type ProcessRunner interface {
	Run() error
}

// TriggerProcessHandler 手動觸發批次處理；同一時間只允許一輪進行
type TriggerProcessHandler struct {
	processService ProcessRunner
	mu             sync.Mutex
	isProcessing   bool
}

func NewTriggerProcessHandler(ps ProcessRunner) *TriggerProcessHandler {
	if ps == nil {
		log.Panicln("TriggerProcessHandler：ProcessRunner 不得為空")
	}
	return &TriggerProcessHandler{processService: ps}
}

func (h *TriggerProcessHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log.Printf("資訊：[TriggerProcessHandler] 收到請求: %s %s 來自 %s\n", r.Method, r.URL.Path, r.RemoteAddr)

	if r.Method != http.MethodPost {
		log.Printf("警告：[TriggerProcessHandler] 收到非 POST 請求 (%s)，已拒絕。\n", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "僅支援 POST 方法")
		return
	}

	h.mu.Lock()
	if h.isProcessing {
		h.mu.Unlock()
		log.Println("警告：[TriggerProcessHandler] 批次處理已在進行中，拒絕新的觸發。")
		writeError(w, http.StatusConflict, "批次處理已在進行中，請稍候。")
		return
	}
	h.isProcessing = true
	h.mu.Unlock()

	go func() {
		defer func() {
			h.mu.Lock()
			h.isProcessing = false
			h.mu.Unlock()
			log.Println("資訊：[TriggerProcessHandler] 手動觸發的批次處理 goroutine 已結束。")
		}()

		log.Println("資訊：[TriggerProcessHandler] 開始執行手動觸發的批次處理任務...")
		if err := h.processService.Run(); err != nil {
			log.Printf("錯誤：[TriggerProcessHandler] 手動觸發的批次處理執行失敗: %v", err)
		} else {
			log.Println("資訊：[TriggerProcessHandler] 手動觸發的批次處理執行成功。")
		}
	}()

	writeSuccess(w, http.StatusOK, map[string]interface{}{"message": "批次處理已觸發，正在背景執行。"})
}
