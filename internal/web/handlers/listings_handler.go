package handlers

import (
	"log"
	"net/http"
	"strconv"

	"SocialListing-admin/internal/models"
)

const defaultListingPageSize = 20

// ListingsHandler 提供刊登列表查詢
type ListingsHandler struct {
	db DBStore
}

func NewListingsHandler(db DBStore) *ListingsHandler {
	if db == nil {
		log.Panicln("ListingsHandler：DBStore 不得為空")
	}
	return &ListingsHandler{db: db}
}

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func (h *ListingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "僅支援 GET 方法")
		return
	}

	limit := parsePositiveInt(r.URL.Query().Get("limit"), defaultListingPageSize)
	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			offset = n
		}
	}

	listings, err := h.db.GetListings(limit, offset)
	if err != nil {
		log.Printf("錯誤：[ListingsHandler] 查詢刊登列表失敗: %v", err)
		writeError(w, http.StatusInternalServerError, "查詢刊登列表失敗")
		return
	}

	writeListings(w, listings)
}

// ListingSearchHandler 提供刊登關鍵字搜尋
type ListingSearchHandler struct {
	db DBStore
}

func NewListingSearchHandler(db DBStore) *ListingSearchHandler {
	if db == nil {
		log.Panicln("ListingSearchHandler：DBStore 不得為空")
	}
	return &ListingSearchHandler{db: db}
}

func (h *ListingSearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "僅支援 GET 方法")
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "缺少 q 參數")
		return
	}
	limit := parsePositiveInt(r.URL.Query().Get("limit"), defaultListingPageSize)

	listings, err := h.db.SearchListings(query, limit)
	if err != nil {
		log.Printf("錯誤：[ListingSearchHandler] 搜尋刊登失敗: %v", err)
		writeError(w, http.StatusInternalServerError, "搜尋刊登失敗")
		return
	}

	writeListings(w, listings)
}

func writeListings(w http.ResponseWriter, listings []models.Listing) {
	if listings == nil {
		listings = []models.Listing{}
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"count":    len(listings),
		"listings": listings,
	})
}
