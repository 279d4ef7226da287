package models

import "time"

// ComparableProduct 是刊登中引用的同類商品摘要（只投影標題/價格/前三項特徵）
type ComparableProduct struct {
	Title       string   `json:"title"`
	Price       string   `json:"price"`
	KeyFeatures []string `json:"key_features"`
}

// Listing 對應 listings 資料表，由合成器產出的最終商品刊登。
// 寫入一次後即唯讀（更新不在本系統範圍內）。
type Listing struct {
	ID                 int64               `json:"id"`
	Title              string              `json:"title"`
	Category           string              `json:"category"`
	Subcategory        string              `json:"subcategory"`
	Description        string              `json:"description"`
	Price              string              `json:"price"`
	Features           []string            `json:"features"`
	Specifications     map[string]string   `json:"specifications"`
	Keywords           []string            `json:"keywords"`
	ComparableProducts []ComparableProduct `json:"comparable_products"`
	SourcePostID       string              `json:"source_post_id"`
	Status             ListingStatus       `json:"status"`
	CreatedAt          time.Time           `json:"created_at"`
}
