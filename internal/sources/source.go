package sources

import (
	"context"

	"SocialListing-admin/internal/models"
)

// Source 定義外部內容來源的擷取介面。
// 各平台連接器把原始貼文整理成 models.RawPost，由擷取服務統一入庫。
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.RawPost, error)
}
