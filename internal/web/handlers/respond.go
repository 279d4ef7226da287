package handlers

import (
	"encoding/json"
	"net/http"
)

// writeSuccess 以統一的 JSON 信封回覆成功結果；所有回應都帶 status 欄位
func writeSuccess(w http.ResponseWriter, statusCode int, payload map[string]interface{}) {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload["status"] = "success"
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// writeError 以 {"status":"error","message":...} 回覆失敗
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "error",
		"message": message,
	})
}
