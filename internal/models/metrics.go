package models

import (
	"fmt"
	"time"
)

// ProcessingMetrics 是單次批次執行的統計，只由協調器在每批收攏後的
// 單一彙總點更新，因此不需要鎖。
type ProcessingMetrics struct {
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	TotalPosts      int       `json:"total_posts"`
	SuccessfulPosts int       `json:"successful_posts"`
	FailedPosts     int       `json:"failed_posts"`
	APICalls        int64     `json:"api_calls"`
	APIErrors       int64     `json:"api_errors"`
}

// Duration 回傳執行耗時；EndTime 尚未定案時以現在時間計算。
func (m *ProcessingMetrics) Duration() time.Duration {
	if m.EndTime.IsZero() {
		return time.Since(m.StartTime)
	}
	return m.EndTime.Sub(m.StartTime)
}

// Summary 產出人類可讀的單行摘要，供日誌與報告使用。
func (m *ProcessingMetrics) Summary() string {
	return fmt.Sprintf("貼文總數: %d, 成功: %d, 失敗: %d, API 呼叫: %d, API 錯誤: %d, 耗時: %s",
		m.TotalPosts, m.SuccessfulPosts, m.FailedPosts, m.APICalls, m.APIErrors, m.Duration().Round(time.Millisecond))
}
