package handlers

import (
	"log"
	"net/http"

	"SocialListing-admin/internal/models"
)

// ReportsHandler 查詢歷史批次處理報告
type ReportsHandler struct {
	db DBStore
}

func NewReportsHandler(db DBStore) *ReportsHandler {
	if db == nil {
		log.Panicln("ReportsHandler：DBStore 不得為空")
	}
	return &ReportsHandler{db: db}
}

func (h *ReportsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "僅支援 GET 方法")
		return
	}

	limit := parsePositiveInt(r.URL.Query().Get("limit"), 10)

	reports, err := h.db.GetProcessingReports(limit)
	if err != nil {
		log.Printf("錯誤：[ReportsHandler] 查詢批次處理報告失敗: %v", err)
		writeError(w, http.StatusInternalServerError, "查詢批次處理報告失敗")
		return
	}
	if reports == nil {
		reports = []models.ProcessingMetrics{}
	}

	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"count":   len(reports),
		"reports": reports,
	})
}
