package models

// PriceRange 是參考目錄中一個命名價格區間（例如 budget / mid_range / premium）
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ReferenceProduct 對應 product_references 資料表，
// 匹配階段唯讀的分類/特徵/價格區間範本。
type ReferenceProduct struct {
	ID                 int64                 `json:"id"`
	Category           string                `json:"category"`
	Subcategory        string                `json:"subcategory"`
	BrandOptions       []string              `json:"brand_options"`
	PriceRanges        map[string]PriceRange `json:"price_ranges"`
	BaseSpecifications map[string]string     `json:"base_specifications"`
	CommonFeatures     []string              `json:"common_features"`
	Keywords           []string              `json:"keywords"`
}
