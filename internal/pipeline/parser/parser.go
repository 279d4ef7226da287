package parser

import (
	"strings"

	"SocialListing-admin/internal/models"
)

// 模型回應中使用的哨兵標記與欄位前綴
const (
	beginMarker = "BEGIN_ANALYSIS"
	endMarker   = "END_ANALYSIS"
)

type section int

const (
	sectionNone section = iota
	sectionFeatures
	sectionSpecifications
	sectionKeywords
)

// Parse 將模型產生的半結構化文字解析為分析紀錄。
// 這是刻意的盡力而為（best-effort）合約：哨兵標記可有可無、
// 無法辨識或格式不完整的行一律靜默略過，任何情況下都回傳
// 已解析到的部分結果，不讓解析失敗中斷管線。
func Parse(raw string) models.AnalysisResult {
	result := models.AnalysisResult{
		Specifications: map[string]string{},
	}

	content := raw
	if strings.Contains(content, beginMarker) && strings.Contains(content, endMarker) {
		parts := strings.Split(content, beginMarker)
		content = parts[len(parts)-1]
		content = strings.Split(content, endMarker)[0]
	}
	content = strings.TrimSpace(content)

	current := sectionNone
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "Product Name:"):
			result.ProductName = valueAfterColon(line)
			current = sectionNone
		case strings.HasPrefix(line, "Category:"):
			category := valueAfterColon(line)
			// Prompt 要求「主分類/子分類」格式；沒有斜線時整串視為主分類
			if idx := strings.Index(category, "/"); idx >= 0 {
				result.Category = strings.TrimSpace(category[:idx])
				result.Subcategory = strings.TrimSpace(category[idx+1:])
			} else {
				result.Category = category
			}
			current = sectionNone
		case strings.HasPrefix(line, "Description:"):
			result.Description = valueAfterColon(line)
			current = sectionNone
		case strings.HasPrefix(line, "Price:"):
			result.Price = valueAfterColon(line)
			current = sectionNone
		case strings.HasPrefix(line, "Key Features:"):
			current = sectionFeatures
		case strings.HasPrefix(line, "Specifications:"):
			current = sectionSpecifications
		case strings.HasPrefix(line, "Search Keywords:"):
			current = sectionKeywords
		case strings.HasPrefix(line, "- "):
			item := strings.TrimSpace(strings.TrimPrefix(line, "- "))
			switch current {
			case sectionFeatures:
				result.KeyFeatures = append(result.KeyFeatures, item)
			case sectionSpecifications:
				// 沒有冒號的規格行視為格式不完整，略過
				if key, value, ok := strings.Cut(item, ":"); ok {
					result.Specifications[strings.TrimSpace(key)] = strings.TrimSpace(value)
				}
			case sectionKeywords:
				result.SearchKeywords = append(result.SearchKeywords, item)
			}
		}
	}

	return result
}

func valueAfterColon(line string) string {
	_, value, _ := strings.Cut(line, ":")
	return strings.TrimSpace(value)
}
