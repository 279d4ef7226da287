package models

// AnalysisResult 是分析器對單一內容項產出的結構化紀錄。
// 解析器只填入內容欄位；Status / ErrorMessage 由分析器在收尾時設定。
// 一旦建立即視為不可變，僅嵌入 Listing 或貼文的 analysis_result 欄位，不獨立持久化。
type AnalysisResult struct {
	ProductName    string            `json:"product_name"`
	Category       string            `json:"category"`
	Subcategory    string            `json:"subcategory"`
	Description    string            `json:"description"`
	Price          string            `json:"price"`
	KeyFeatures    []string          `json:"key_features"`
	Specifications map[string]string `json:"specifications"`
	SearchKeywords []string          `json:"search_keywords"`
	Status         AnalysisStatus    `json:"status"`
	ErrorMessage   string            `json:"error_message,omitempty"`
}

// NewErrorAnalysis 建立一個帶錯誤訊息的分析結果
func NewErrorAnalysis(message string) AnalysisResult {
	return AnalysisResult{
		Specifications: map[string]string{},
		Status:         AnalysisStatusError,
		ErrorMessage:   message,
	}
}
