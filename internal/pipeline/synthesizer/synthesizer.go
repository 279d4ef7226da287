package synthesizer

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"SocialListing-admin/internal/models"
	"SocialListing-admin/internal/pipeline/matcher"
)

// ComparableFinder 查詢同分類既有刊登作為 comparable_products
type ComparableFinder interface {
	FindComparableListings(category string, subcategory string, limit int) ([]models.ComparableProduct, error)
}

// Synthesizer 將分析結果與匹配到的參考範本合成為一筆刊登
type Synthesizer struct {
	finder ComparableFinder
}

// 價格層級在描述中的措辭
var priceTierLabels = map[string]string{
	"budget":    "affordable",
	"mid_range": "mid-range",
	"premium":   "premium",
}

const (
	defaultPriceTier    = "mid_range"
	maxFeatures         = 10
	comparableLimit     = 5
	descriptionFeatures = 3
)

// New 建立 Synthesizer 實例
func New(finder ComparableFinder) *Synthesizer {
	return &Synthesizer{finder: finder}
}

// Synthesize 合併分析與參考資料產出 Draft 狀態的刊登。
// 規格以分析值優先；特徵保序合併後截到前 10；關鍵詞取聯集。
func (s *Synthesizer) Synthesize(analysis models.AnalysisResult, reference *models.ReferenceProduct, sourcePostID string) models.Listing {
	specifications := map[string]string{}
	for key, value := range reference.BaseSpecifications {
		specifications[key] = value
	}
	for key, value := range analysis.Specifications {
		specifications[key] = value
	}

	tier := priceTier(analysis.Price, reference)

	price := analysis.Price
	if price == "" {
		if bucket, ok := reference.PriceRanges[tier]; ok {
			price = fmt.Sprintf("$%.2f", bucket.Min)
		}
	}

	listing := models.Listing{
		Title:              analysis.ProductName,
		Category:           reference.Category,
		Subcategory:        reference.Subcategory,
		Description:        buildDescription(analysis, reference, tier),
		Price:              price,
		Features:           combineFeatures(analysis.KeyFeatures, reference.CommonFeatures),
		Specifications:     specifications,
		Keywords:           unionKeywords(reference.Keywords, analysis.SearchKeywords),
		ComparableProducts: s.findComparables(reference),
		SourcePostID:       sourcePostID,
		Status:             models.ListingStatusDraft,
		CreatedAt:          time.Now().UTC(),
	}
	return listing
}

// priceTier 找出分析價格落在哪個命名區間；解析不到時回傳預設層級。
// 依名稱排序後檢查，價格剛好落在相鄰區間共同邊界時結果才穩定。
func priceTier(rawPrice string, reference *models.ReferenceProduct) string {
	price, ok := matcher.ParsePrice(rawPrice)
	if !ok {
		return defaultPriceTier
	}
	names := make([]string, 0, len(reference.PriceRanges))
	for name := range reference.PriceRanges {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		bucket := reference.PriceRanges[name]
		if price >= bucket.Min && price <= bucket.Max {
			return name
		}
	}
	return defaultPriceTier
}

// buildDescription 以分析描述為底，加上子分類特徵段與價格層級句
func buildDescription(analysis models.AnalysisResult, reference *models.ReferenceProduct, tier string) string {
	var sb strings.Builder
	sb.WriteString(analysis.Description)

	if len(reference.CommonFeatures) > 0 {
		top := reference.CommonFeatures
		if len(top) > descriptionFeatures {
			top = top[:descriptionFeatures]
		}
		sb.WriteString(fmt.Sprintf("\n\nThis %s comes with %s.", reference.Subcategory, strings.Join(top, ", ")))
	}

	label, ok := priceTierLabels[tier]
	if !ok {
		label = tier
	}
	sb.WriteString(fmt.Sprintf("\n\nThis %s device offers excellent value for its feature set.", label))
	return sb.String()
}

// combineFeatures 先放分析特徵（保序），再補上未出現的參考特徵，截到前 10
func combineFeatures(analysisFeatures, referenceFeatures []string) []string {
	features := make([]string, 0, len(analysisFeatures)+len(referenceFeatures))
	seen := map[string]bool{}
	for _, feature := range analysisFeatures {
		if !seen[strings.ToLower(feature)] {
			seen[strings.ToLower(feature)] = true
			features = append(features, feature)
		}
	}
	for _, feature := range referenceFeatures {
		if !seen[strings.ToLower(feature)] {
			seen[strings.ToLower(feature)] = true
			features = append(features, feature)
		}
	}
	if len(features) > maxFeatures {
		features = features[:maxFeatures]
	}
	return features
}

// unionKeywords 取聯集並去重；順序不具意義，但輸出保持確定性
func unionKeywords(referenceKeywords, analysisKeywords []string) []string {
	keywords := make([]string, 0, len(referenceKeywords)+len(analysisKeywords))
	seen := map[string]bool{}
	for _, keyword := range append(append([]string{}, referenceKeywords...), analysisKeywords...) {
		if !seen[strings.ToLower(keyword)] {
			seen[strings.ToLower(keyword)] = true
			keywords = append(keywords, keyword)
		}
	}
	return keywords
}

// findComparables 查詢同分類/子分類的既有刊登；查詢失敗只記錄並回傳空列表
func (s *Synthesizer) findComparables(reference *models.ReferenceProduct) []models.ComparableProduct {
	if s.finder == nil {
		return nil
	}
	comparables, err := s.finder.FindComparableListings(reference.Category, reference.Subcategory, comparableLimit)
	if err != nil {
		log.Printf("錯誤：[Synthesizer] 查詢 comparable products 失敗: %v\n", err)
		return nil
	}
	return comparables
}
