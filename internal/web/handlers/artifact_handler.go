package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"path/filepath"
	"strings"
)

// ArtifactReader 依 SaveJSON 回傳的相對路徑讀回先前落檔的管線產物
type ArtifactReader interface {
	ReadJSON(relativePath string, dst interface{}) error
}

// ArtifactHandler 提供分析結果與批次報告等落檔產物的讀取
type ArtifactHandler struct {
	artifacts ArtifactReader
}

func NewArtifactHandler(artifacts ArtifactReader) *ArtifactHandler {
	if artifacts == nil {
		log.Panicln("ArtifactHandler：ArtifactReader 不得為空")
	}
	return &ArtifactHandler{artifacts: artifacts}
}

func (h *ArtifactHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "僅支援 GET 方法")
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "缺少 path 參數")
		return
	}
	if !isRelativeArtifactPath(path) {
		log.Printf("警告：[ArtifactHandler] 拒絕越界的產物路徑: %s", path)
		writeError(w, http.StatusBadRequest, "無效的產物路徑")
		return
	}

	var artifact json.RawMessage
	if err := h.artifacts.ReadJSON(path, &artifact); err != nil {
		log.Printf("錯誤：[ArtifactHandler] 讀取產物 %s 失敗: %v", path, err)
		writeError(w, http.StatusNotFound, "找不到指定的產物")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"path":     path,
		"artifact": artifact,
	})
}

// isRelativeArtifactPath 只接受不含上跳段的相對路徑，避免讀到產物根目錄以外的檔案
func isRelativeArtifactPath(path string) bool {
	if filepath.IsAbs(path) {
		return false
	}
	for _, segment := range strings.Split(filepath.ToSlash(path), "/") {
		if segment == ".." {
			return false
		}
	}
	return true
}
