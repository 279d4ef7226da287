package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// SocialPost 對應 posts 資料表，一筆由外部來源擷取的社群貼文。
// Processed 只會在整條管線成功後由協調器設為 true（每筆最多一次）；
// 失敗的貼文維持 false 並留下 ErrorMessage，是否重新處理由設定決定。
type SocialPost struct {
	ID             string          `json:"id"`
	Platform       string          `json:"platform"`
	SourceID       string          `json:"source_id"`
	ContentType    ContentType     `json:"content_type"`
	ContentURL     string          `json:"content_url"`
	Caption        string          `json:"caption"`
	Processed      bool            `json:"processed"`
	AnalysisResult json.RawMessage `json:"analysis_result,omitempty"`
	ReferenceID    sql.NullInt64   `json:"reference_id"`
	ErrorMessage   JsonNullString  `json:"error_message"`
	Timestamp      time.Time       `json:"timestamp"`
}

// RawPost 是來源連接器回傳的最小貼文形狀，尚未入庫。
type RawPost struct {
	SourceID    string
	Platform    string
	ContentType ContentType
	ContentURL  string
	Caption     string
	Timestamp   time.Time
}
