package services

// ArtifactStore 介面定義了管線產物的落地操作
type ArtifactStore interface {
	SaveJSON(kind string, id string, v interface{}) (string, error)
}

// ModelCounters 提供模型客戶端的累計呼叫/錯誤計數，
// 批次協調器以前後快照差值計算單輪的 API 統計。
type ModelCounters interface {
	Counters() (calls int64, errors int64)
}
