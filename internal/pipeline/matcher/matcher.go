package matcher

import (
	"log"
	"strconv"
	"strings"

	"SocialListing-admin/internal/config"
	"SocialListing-admin/internal/models"
)

// Matcher 以關鍵詞/特徵/價格區間重疊為參考目錄中的候選打分。
// 權重與門檻全部來自設定。
type Matcher struct {
	cfg config.MatcherConfig
}

// New 建立 Matcher 實例
func New(cfg config.MatcherConfig) *Matcher {
	return &Matcher{cfg: cfg}
}

// Match 回傳分數嚴格最高且超過門檻的候選；同分取先出現者。
// 沒有候選超過門檻時回傳 nil（不是錯誤）。結果對同一輸入是確定性的。
func (m *Matcher) Match(analysis models.AnalysisResult, candidates []models.ReferenceProduct) *models.ReferenceProduct {
	var best *models.ReferenceProduct
	highest := 0

	for i := range candidates {
		candidate := &candidates[i]
		if !categoryMatches(analysis.Category, candidate.Category) {
			continue
		}
		score := m.score(analysis, candidate)
		if score > highest {
			highest = score
			best = candidate
		}
	}

	if highest <= m.cfg.MinScore {
		if best != nil {
			log.Printf("資訊：[Matcher] 最高分 %d 未超過門檻 %d，視為無匹配。\n", highest, m.cfg.MinScore)
		}
		return nil
	}
	log.Printf("資訊：[Matcher] 匹配到 %s/%s（分數 %d）。\n", best.Category, best.Subcategory, highest)
	return best
}

// score 計算單一候選的分數
func (m *Matcher) score(analysis models.AnalysisResult, candidate *models.ReferenceProduct) int {
	score := 0

	analysisKeywords := lowerSet(analysis.SearchKeywords)
	for _, keyword := range candidate.Keywords {
		if analysisKeywords[strings.ToLower(keyword)] {
			score += m.cfg.KeywordWeight
		}
	}

	analysisFeatures := lowerSet(analysis.KeyFeatures)
	for _, feature := range candidate.CommonFeatures {
		if analysisFeatures[strings.ToLower(feature)] {
			score += m.cfg.FeatureWeight
		}
	}

	// 價格解析失敗只是貢獻 0 分，不是錯誤
	if price, ok := ParsePrice(analysis.Price); ok {
		for _, bucket := range candidate.PriceRanges {
			if price >= bucket.Min && price <= bucket.Max {
				score += m.cfg.PriceWeight
				break
			}
		}
	}

	return score
}

// categoryMatches 粗略的大小寫不敏感子字串比對；
// 分析結果沒有分類時不做過濾（所有候選通過）。
func categoryMatches(analysisCategory, candidateCategory string) bool {
	a := strings.ToLower(strings.TrimSpace(analysisCategory))
	c := strings.ToLower(strings.TrimSpace(candidateCategory))
	if a == "" {
		return true
	}
	return strings.Contains(a, c) || strings.Contains(c, a)
}

// ParsePrice 將自由文字價格（如 "$1,299.99"）解析為數值。
// 去除貨幣符號與千分位後取第一個數字 token；解析不到回傳 false。
func ParsePrice(raw string) (float64, bool) {
	cleaned := strings.NewReplacer("$", "", "€", "", "£", "", "¥", "", ",", "").Replace(raw)
	for _, field := range strings.Fields(cleaned) {
		field = strings.TrimFunc(field, func(r rune) bool {
			return (r < '0' || r > '9') && r != '.'
		})
		if field == "" {
			continue
		}
		if value, err := strconv.ParseFloat(field, 64); err == nil {
			return value, true
		}
	}
	return 0, false
}

func lowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = true
	}
	return set
}
