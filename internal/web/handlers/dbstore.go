package handlers

import (
	"encoding/json"

	"SocialListing-admin/internal/models"
)

// DBStore 定義 Handler 與服務層需要的資料庫操作。
// 在使用端定義介面，避免 handlers 直接依賴 storage/mysql。
type DBStore interface {
	Close() error

	InsertPost(post *models.SocialPost) error
	InsertPostIfNew(post *models.SocialPost) (bool, error)
	GetPostByID(id string) (*models.SocialPost, error)
	GetUnprocessedPosts(limit int, includeFailed bool) ([]models.SocialPost, error)
	MarkPostProcessed(postID string, analysis json.RawMessage, referenceID int64) error
	MarkPostFailed(postID string, message string) error

	GetReferencesByCategory(category string, limit int) ([]models.ReferenceProduct, error)

	InsertListing(listing *models.Listing) (int64, error)
	GetListings(limit int, offset int) ([]models.Listing, error)
	SearchListings(searchTerm string, limit int) ([]models.Listing, error)
	FindComparableListings(category string, subcategory string, limit int) ([]models.ComparableProduct, error)

	InsertProcessingReport(metrics *models.ProcessingMetrics) error
	GetProcessingReports(limit int) ([]models.ProcessingMetrics, error)
}
