package models

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// ContentType 定義社群貼文的內容類型
type ContentType string

const (
	ContentTypeImage ContentType = "image"
	ContentTypeVideo ContentType = "video"
	ContentTypeText  ContentType = "text"
)

// AnalysisStatus 定義單項分析的結果狀態
type AnalysisStatus string

const (
	AnalysisStatusSuccess AnalysisStatus = "success"
	AnalysisStatusError   AnalysisStatus = "error"
)

// ListingStatus 定義商品刊登的狀態
type ListingStatus string

const (
	ListingStatusDraft  ListingStatus = "draft"
	ListingStatusActive ListingStatus = "active"
)

// JsonNullString 是一個 sql.NullString 的包裝類型，用於自訂 JSON (un)marshalling。
type JsonNullString struct {
	sql.NullString
}

// MarshalJSON 為 JsonNullString 實現 json.Marshaler 介面。
func (jns JsonNullString) MarshalJSON() ([]byte, error) {
	if !jns.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(jns.String)
}

// UnmarshalJSON 為 JsonNullString 實現 json.Unmarshaler 介面。
func (jns *JsonNullString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		jns.String, jns.Valid = "", false
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		jns.String, jns.Valid = "", false
		return fmt.Errorf("JsonNullString: 期望 JSON 字串或 null，但得到 '%s': %w", string(data), err)
	}
	jns.String, jns.Valid = s, true
	return nil
}
