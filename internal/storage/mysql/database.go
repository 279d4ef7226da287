package mysql

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"SocialListing-admin/internal/config"
	"SocialListing-admin/internal/models"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore 結構
type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(dbCfg config.DatabaseConfig) (*MySQLStore, error) {
	if dbCfg.Driver != "mysql" {
		return nil, fmt.Errorf("不支援的資料庫驅動程式: %s", dbCfg.Driver)
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local", dbCfg.User, dbCfg.Password, dbCfg.Host, dbCfg.Port, dbCfg.DBName)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("開啟資料庫連線失敗: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("無法連線到資料庫 (ping 失敗): %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	log.Println("資訊：成功連線到 MySQL 資料庫。")
	return &MySQLStore{db: db}, nil
}

func (s *MySQLStore) Close() error {
	if s.db != nil {
		log.Println("資訊：正在關閉 MySQL 資料庫連線...")
		return s.db.Close()
	}
	return nil
}

// marshalJSON 把 slice/map 欄位序列化成 JSON 欄位值；nil 存成 SQL NULL
func marshalJSON(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("序列化 JSON 欄位失敗: %w", err)
	}
	return data, nil
}

// unmarshalJSON 反序列化 JSON 欄位；NULL 或空值時不動 dst
func unmarshalJSON(raw []byte, dst interface{}) {
	if len(raw) == 0 {
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		log.Printf("警告：[MySQLStore] 反序列化 JSON 欄位失敗: %v，原始內容: %s", err, firstN(string(raw), 120))
	}
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// InsertPostIfNew 以 (platform, source_id) 去重插入貼文；已存在時不更新。
// 回傳是否實際新增了一筆。
func (s *MySQLStore) InsertPostIfNew(post *models.SocialPost) (bool, error) {
	if post == nil || post.ID == "" {
		return false, fmt.Errorf("傳入的 post 物件無效")
	}
	if post.Platform == "" || post.SourceID == "" {
		return false, fmt.Errorf("post 物件必須帶 Platform 與 SourceID 才能去重")
	}

	var existingID string
	err := s.db.QueryRow("SELECT id FROM posts WHERE platform = ? AND source_id = ?", post.Platform, post.SourceID).Scan(&existingID)
	if err == nil {
		return false, nil
	}
	if err != sql.ErrNoRows {
		return false, fmt.Errorf("查找貼文失敗 (platform: %s, source: %s): %w", post.Platform, post.SourceID, err)
	}

	timestamp := post.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	insertQuery := `INSERT INTO posts (id, platform, source_id, content_type, content_url, caption, processed, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?, ?);`
	if _, err := s.db.Exec(insertQuery, post.ID, post.Platform, post.SourceID, post.ContentType, post.ContentURL, post.Caption, false, timestamp); err != nil {
		return false, fmt.Errorf("插入新貼文記錄失敗 (platform: %s, source: %s): %w", post.Platform, post.SourceID, err)
	}
	log.Printf("資訊：新增貼文記錄成功，ID: %s (platform: %s, source: %s)\n", post.ID, post.Platform, post.SourceID)
	return true, nil
}

// InsertPost 直接插入一筆貼文（手動匯入路徑），不做來源去重
func (s *MySQLStore) InsertPost(post *models.SocialPost) error {
	if post == nil || post.ID == "" {
		return fmt.Errorf("傳入的 post 物件無效")
	}
	timestamp := post.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	query := `INSERT INTO posts (id, platform, source_id, content_type, content_url, caption, processed, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?, ?);`
	if _, err := s.db.Exec(query, post.ID, post.Platform, post.SourceID, post.ContentType, post.ContentURL, post.Caption, post.Processed, timestamp); err != nil {
		return fmt.Errorf("插入貼文記錄失敗 (ID: %s): %w", post.ID, err)
	}
	return nil
}

const postColumns = "id, platform, source_id, content_type, content_url, caption, processed, analysis_result, reference_id, error_message, timestamp"

func scanPost(scan func(dest ...interface{}) error) (*models.SocialPost, error) {
	var p models.SocialPost
	var analysisSQL []byte
	var captionSQL, errorMessageSQL sql.NullString
	err := scan(&p.ID, &p.Platform, &p.SourceID, &p.ContentType, &p.ContentURL, &captionSQL, &p.Processed, &analysisSQL, &p.ReferenceID, &errorMessageSQL, &p.Timestamp)
	if err != nil {
		return nil, err
	}
	if captionSQL.Valid {
		p.Caption = captionSQL.String
	}
	p.ErrorMessage = models.JsonNullString{NullString: errorMessageSQL}
	if analysisSQL != nil {
		p.AnalysisResult = json.RawMessage(analysisSQL)
	}
	return &p, nil
}

func (s *MySQLStore) GetPostByID(id string) (*models.SocialPost, error) {
	if id == "" {
		return nil, fmt.Errorf("無效的貼文 ID")
	}
	row := s.db.QueryRow("SELECT "+postColumns+" FROM posts WHERE id = ?", id)
	post, err := scanPost(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("查詢貼文 %s 失敗: %w", id, err)
	}
	return post, nil
}

// GetUnprocessedPosts 取回待處理貼文。includeFailed 為 true 時
// 連同先前失敗（留有 error_message）的貼文一併取回重新處理。
func (s *MySQLStore) GetUnprocessedPosts(limit int, includeFailed bool) ([]models.SocialPost, error) {
	query := "SELECT " + postColumns + " FROM posts WHERE processed = FALSE"
	if !includeFailed {
		query += " AND error_message IS NULL"
	}
	query += " ORDER BY timestamp ASC LIMIT ?"

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("查詢待處理貼文失敗: %w", err)
	}
	defer rows.Close()

	var posts []models.SocialPost
	for rows.Next() {
		post, err := scanPost(rows.Scan)
		if err != nil {
			log.Printf("錯誤：掃描待處理貼文查詢結果行失敗: %v", err)
			continue
		}
		posts = append(posts, *post)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("處理待處理貼文查詢結果集時發生錯誤: %w", err)
	}
	log.Printf("資訊：查詢到 %d 筆待處理貼文。\n", len(posts))
	return posts, nil
}

// MarkPostProcessed 在整條管線成功後標記貼文完成並附上分析結果
func (s *MySQLStore) MarkPostProcessed(postID string, analysis json.RawMessage, referenceID int64) error {
	if postID == "" {
		return fmt.Errorf("無效的貼文 ID")
	}
	query := "UPDATE posts SET processed = TRUE, analysis_result = ?, reference_id = ?, error_message = NULL WHERE id = ?"
	var refID interface{}
	if referenceID > 0 {
		refID = referenceID
	}
	if _, err := s.db.Exec(query, []byte(analysis), refID, postID); err != nil {
		return fmt.Errorf("標記貼文 %s 為已處理失敗: %w", postID, err)
	}
	log.Printf("資訊：貼文 %s 已標記為處理完成。\n", postID)
	return nil
}

// MarkPostFailed 記錄失敗原因；processed 維持 false，之後可依設定重新處理
func (s *MySQLStore) MarkPostFailed(postID string, message string) error {
	if postID == "" {
		return fmt.Errorf("無效的貼文 ID")
	}
	query := "UPDATE posts SET error_message = ? WHERE id = ?"
	if _, err := s.db.Exec(query, message, postID); err != nil {
		return fmt.Errorf("記錄貼文 %s 失敗原因時發生錯誤: %w", postID, err)
	}
	return nil
}

// GetReferencesByCategory 取回匹配候選；category 為空時取全目錄（上限 limit）
func (s *MySQLStore) GetReferencesByCategory(category string, limit int) ([]models.ReferenceProduct, error) {
	query := "SELECT id, category, subcategory, brand_options, price_ranges, base_specifications, common_features, keywords FROM product_references"
	var args []interface{}
	if category != "" {
		query += " WHERE LOWER(category) LIKE ? OR LOWER(?) LIKE CONCAT('%', LOWER(category), '%')"
		args = append(args, "%"+strings.ToLower(category)+"%", category)
	}
	query += " ORDER BY id ASC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("查詢產品參考目錄失敗 (category: %s): %w", category, err)
	}
	defer rows.Close()

	var references []models.ReferenceProduct
	for rows.Next() {
		var r models.ReferenceProduct
		var brandsSQL, rangesSQL, specsSQL, featuresSQL, keywordsSQL sql.RawBytes
		if err := rows.Scan(&r.ID, &r.Category, &r.Subcategory, &brandsSQL, &rangesSQL, &specsSQL, &featuresSQL, &keywordsSQL); err != nil {
			log.Printf("錯誤：掃描產品參考目錄查詢結果行失敗: %v", err)
			continue
		}
		unmarshalJSON(brandsSQL, &r.BrandOptions)
		unmarshalJSON(rangesSQL, &r.PriceRanges)
		unmarshalJSON(specsSQL, &r.BaseSpecifications)
		unmarshalJSON(featuresSQL, &r.CommonFeatures)
		unmarshalJSON(keywordsSQL, &r.Keywords)
		references = append(references, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("處理產品參考目錄查詢結果集時發生錯誤: %w", err)
	}
	return references, nil
}

// InsertListing 寫入一筆刊登並回傳資料庫 ID
func (s *MySQLStore) InsertListing(listing *models.Listing) (int64, error) {
	if listing == nil {
		return 0, fmt.Errorf("傳入的 listing 物件不得為 nil")
	}

	features, err := marshalJSON(listing.Features)
	if err != nil {
		return 0, err
	}
	specs, err := marshalJSON(listing.Specifications)
	if err != nil {
		return 0, err
	}
	keywords, err := marshalJSON(listing.Keywords)
	if err != nil {
		return 0, err
	}
	comparables, err := marshalJSON(listing.ComparableProducts)
	if err != nil {
		return 0, err
	}

	createdAt := listing.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	query := `INSERT INTO listings (title, category, subcategory, description, price, features, specifications, keywords, comparable_products, source_post_id, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`
	res, err := s.db.Exec(query, listing.Title, listing.Category, listing.Subcategory, listing.Description, listing.Price, features, specs, keywords, comparables, listing.SourcePostID, listing.Status, createdAt)
	if err != nil {
		return 0, fmt.Errorf("插入刊登記錄失敗 (source post: %s): %w", listing.SourcePostID, err)
	}
	listingID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("獲取新插入刊登的 ID 失敗: %w", err)
	}
	log.Printf("資訊：刊登記錄成功寫入，ID: %d (標題: %s)\n", listingID, listing.Title)
	return listingID, nil
}

const listingColumns = "id, title, category, subcategory, description, price, features, specifications, keywords, comparable_products, source_post_id, status, created_at"

func scanListing(scan func(dest ...interface{}) error) (*models.Listing, error) {
	var l models.Listing
	var featuresSQL, specsSQL, keywordsSQL, comparablesSQL sql.RawBytes
	err := scan(&l.ID, &l.Title, &l.Category, &l.Subcategory, &l.Description, &l.Price, &featuresSQL, &specsSQL, &keywordsSQL, &comparablesSQL, &l.SourcePostID, &l.Status, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	unmarshalJSON(featuresSQL, &l.Features)
	unmarshalJSON(specsSQL, &l.Specifications)
	unmarshalJSON(keywordsSQL, &l.Keywords)
	unmarshalJSON(comparablesSQL, &l.ComparableProducts)
	return &l, nil
}

func (s *MySQLStore) GetListings(limit int, offset int) ([]models.Listing, error) {
	rows, err := s.db.Query("SELECT "+listingColumns+" FROM listings ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("查詢刊登列表失敗: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		listing, err := scanListing(rows.Scan)
		if err != nil {
			log.Printf("錯誤：掃描刊登查詢結果行失敗: %v", err)
			continue
		}
		listings = append(listings, *listing)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("處理刊登查詢結果集時發生錯誤: %w", err)
	}
	return listings, nil
}

// SearchListings 以標題/描述/分類/關鍵字做 LIKE 搜尋
func (s *MySQLStore) SearchListings(searchTerm string, limit int) ([]models.Listing, error) {
	likeTerm := "%" + strings.ReplaceAll(strings.ReplaceAll(searchTerm, "%", "\\%"), "_", "\\_") + "%"
	query := `SELECT ` + listingColumns + ` FROM listings WHERE (
		title LIKE ? OR description LIKE ? OR category LIKE ? OR subcategory LIKE ? OR IFNULL(keywords, '') LIKE ?
	) ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := s.db.Query(query, likeTerm, likeTerm, likeTerm, likeTerm, likeTerm, limit)
	if err != nil {
		return nil, fmt.Errorf("搜尋刊登失敗 (關鍵字: %s): %w", searchTerm, err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		listing, err := scanListing(rows.Scan)
		if err != nil {
			log.Printf("錯誤：掃描刊登搜尋結果行失敗: %v", err)
			continue
		}
		listings = append(listings, *listing)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("處理刊登搜尋結果集時發生錯誤: %w", err)
	}
	log.Printf("資訊：搜尋「%s」找到 %d 筆刊登。\n", searchTerm, len(listings))
	return listings, nil
}

// FindComparableListings 取同分類既有刊登的摘要投影（標題/價格/前三項特徵），
// 供合成器填入刊登的同類商品區塊。
func (s *MySQLStore) FindComparableListings(category string, subcategory string, limit int) ([]models.ComparableProduct, error) {
	query := "SELECT title, price, features FROM listings WHERE LOWER(category) = LOWER(?)"
	args := []interface{}{category}
	if subcategory != "" {
		query += " AND LOWER(subcategory) = LOWER(?)"
		args = append(args, subcategory)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("查詢同類刊登失敗 (category: %s): %w", category, err)
	}
	defer rows.Close()

	var comparables []models.ComparableProduct
	for rows.Next() {
		var c models.ComparableProduct
		var featuresSQL sql.RawBytes
		if err := rows.Scan(&c.Title, &c.Price, &featuresSQL); err != nil {
			log.Printf("錯誤：掃描同類刊登查詢結果行失敗: %v", err)
			continue
		}
		var features []string
		unmarshalJSON(featuresSQL, &features)
		if len(features) > 3 {
			features = features[:3]
		}
		c.KeyFeatures = features
		comparables = append(comparables, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("處理同類刊登查詢結果集時發生錯誤: %w", err)
	}
	return comparables, nil
}

// InsertProcessingReport 寫入一次批次執行的統計報告
func (s *MySQLStore) InsertProcessingReport(metrics *models.ProcessingMetrics) error {
	if metrics == nil {
		return fmt.Errorf("傳入的 metrics 物件不得為 nil")
	}
	query := `INSERT INTO processing_reports (start_time, end_time, total_posts, successful_posts, failed_posts, api_calls, api_errors) VALUES (?, ?, ?, ?, ?, ?, ?);`
	if _, err := s.db.Exec(query, metrics.StartTime, metrics.EndTime, metrics.TotalPosts, metrics.SuccessfulPosts, metrics.FailedPosts, metrics.APICalls, metrics.APIErrors); err != nil {
		return fmt.Errorf("儲存批次處理報告失敗: %w", err)
	}
	log.Printf("資訊：批次處理報告已儲存（%s）。\n", metrics.Summary())
	return nil
}

func (s *MySQLStore) GetProcessingReports(limit int) ([]models.ProcessingMetrics, error) {
	rows, err := s.db.Query("SELECT start_time, end_time, total_posts, successful_posts, failed_posts, api_calls, api_errors FROM processing_reports ORDER BY start_time DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("查詢批次處理報告失敗: %w", err)
	}
	defer rows.Close()

	var reports []models.ProcessingMetrics
	for rows.Next() {
		var m models.ProcessingMetrics
		if err := rows.Scan(&m.StartTime, &m.EndTime, &m.TotalPosts, &m.SuccessfulPosts, &m.FailedPosts, &m.APICalls, &m.APIErrors); err != nil {
			log.Printf("錯誤：掃描批次處理報告查詢結果行失敗: %v", err)
			continue
		}
		reports = append(reports, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("處理批次處理報告查詢結果集時發生錯誤: %w", err)
	}
	return reports, nil
}
