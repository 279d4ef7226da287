package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"SocialListing-admin/internal/config"
	"SocialListing-admin/internal/models"
	"SocialListing-admin/internal/pipeline/analyzer"
	"SocialListing-admin/internal/pipeline/matcher"
	"SocialListing-admin/internal/pipeline/synthesizer"
)

// fakeDBStore 以記憶體實作 handlers.DBStore；工作 goroutine 會併發讀寫，因此加鎖
type fakeDBStore struct {
	mu             sync.Mutex
	posts          map[string]*models.SocialPost
	references     []models.ReferenceProduct
	listings       []models.Listing
	reports        []models.ProcessingMetrics
	processedPosts []string
	failedPosts    map[string]string
	lastLimit      int
	lastIncFailed  bool
}

func newFakeDBStore() *fakeDBStore {
	return &fakeDBStore{
		posts:       map[string]*models.SocialPost{},
		failedPosts: map[string]string{},
	}
}

func (f *fakeDBStore) Close() error { return nil }

func (f *fakeDBStore) InsertPost(post *models.SocialPost) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts[post.ID] = post
	return nil
}

func (f *fakeDBStore) InsertPostIfNew(post *models.SocialPost) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.posts {
		if existing.Platform == post.Platform && existing.SourceID == post.SourceID {
			return false, nil
		}
	}
	f.posts[post.ID] = post
	return true, nil
}

func (f *fakeDBStore) GetPostByID(id string) (*models.SocialPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posts[id], nil
}

func (f *fakeDBStore) GetUnprocessedPosts(limit int, includeFailed bool) ([]models.SocialPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	f.lastIncFailed = includeFailed
	var out []models.SocialPost
	for _, p := range f.posts {
		if !p.Processed {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeDBStore) MarkPostProcessed(postID string, analysis json.RawMessage, referenceID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.posts[postID]; ok {
		p.Processed = true
		p.AnalysisResult = analysis
	}
	f.processedPosts = append(f.processedPosts, postID)
	return nil
}

func (f *fakeDBStore) MarkPostFailed(postID string, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failedPosts[postID] = message
	return nil
}

func (f *fakeDBStore) GetReferencesByCategory(string, int) ([]models.ReferenceProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.references, nil
}

func (f *fakeDBStore) InsertListing(listing *models.Listing) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	listing.ID = int64(len(f.listings) + 1)
	f.listings = append(f.listings, *listing)
	return listing.ID, nil
}

func (f *fakeDBStore) GetListings(int, int) ([]models.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listings, nil
}

func (f *fakeDBStore) SearchListings(string, int) ([]models.Listing, error) { return nil, nil }

func (f *fakeDBStore) FindComparableListings(string, string, int) ([]models.ComparableProduct, error) {
	return nil, nil
}

func (f *fakeDBStore) InsertProcessingReport(metrics *models.ProcessingMetrics) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, *metrics)
	return nil
}

func (f *fakeDBStore) GetProcessingReports(int) ([]models.ProcessingMetrics, error) {
	return f.reports, nil
}

type fakeArtifacts struct {
	mu    sync.Mutex
	saved []string
}

func (a *fakeArtifacts) SaveJSON(kind string, id string, _ interface{}) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saved = append(a.saved, kind+"/"+id)
	return kind + "/" + id + ".json", nil
}

type fakeCounters struct{ calls, errors int64 }

func (c *fakeCounters) Counters() (int64, int64) { return c.calls, c.errors }

// fakeAnalyzer 依貼文 ID 決定回傳的分析結果
type fakeAnalyzer struct {
	results map[string]models.AnalysisResult
}

func (a *fakeAnalyzer) Analyze(_ context.Context, post models.SocialPost) models.AnalysisResult {
	if result, ok := a.results[post.ID]; ok {
		return result
	}
	return models.NewErrorAnalysis("測試未定義的貼文")
}

func testConfig() *config.Config {
	return &config.Config{
		Matcher: config.MatcherConfig{
			MinScore:       3,
			KeywordWeight:  2,
			FeatureWeight:  1,
			PriceWeight:    3,
			CandidateLimit: 10,
		},
		Pipeline: config.PipelineConfig{
			BatchSize:           5,
			InterBatchPauseSecs: 0,
			CollectLimit:        25,
			ReprocessFailed:     false,
		},
	}
}

func earbudsReference() models.ReferenceProduct {
	return models.ReferenceProduct{
		ID:       1,
		Category: "Electronics",
		PriceRanges: map[string]models.PriceRange{
			"budget":    {Min: 20, Max: 80},
			"mid_range": {Min: 80, Max: 200},
		},
		CommonFeatures: []string{"Active noise cancellation", "Bluetooth 5.0"},
		Keywords:       []string{"earbuds", "wireless"},
	}
}

func successAnalysis(price string) models.AnalysisResult {
	return models.AnalysisResult{
		ProductName:    "無線藍牙耳機",
		Category:       "Electronics",
		Subcategory:    "Audio",
		Description:    "支援主動降噪的真無線耳機。",
		Price:          price,
		KeyFeatures:    []string{"Active noise cancellation"},
		Specifications: map[string]string{"Color": "Black"},
		SearchKeywords: []string{"earbuds"},
		Status:         models.AnalysisStatusSuccess,
	}
}

func newProcessServiceForTest(t *testing.T, db *fakeDBStore, analyzers map[models.ContentType]analyzer.Analyzer, counters ModelCounters) *ProcessService {
	t.Helper()
	cfg := testConfig()
	svc, err := NewProcessService(cfg, db, &fakeArtifacts{}, analyzers, matcher.New(cfg.Matcher), synthesizer.New(db), counters)
	if err != nil {
		t.Fatalf("建立 ProcessService 失敗: %v", err)
	}
	return svc
}

func TestProcessServiceBatchIsolation(t *testing.T) {
	db := newFakeDBStore()
	db.references = []models.ReferenceProduct{earbudsReference()}

	results := map[string]models.AnalysisResult{}
	for i := 1; i <= 5; i++ {
		id := fmt.Sprintf("post-%d", i)
		db.posts[id] = &models.SocialPost{ID: id, ContentType: models.ContentTypeText, Caption: "caption", Timestamp: time.Now()}
		if i == 3 {
			results[id] = models.NewErrorAnalysis("模擬的分析失敗")
		} else {
			results[id] = successAnalysis("$149.99")
		}
	}

	svc := newProcessServiceForTest(t, db, map[models.ContentType]analyzer.Analyzer{
		models.ContentTypeText: &fakeAnalyzer{results: results},
	}, &fakeCounters{})

	if err := svc.Run(); err != nil {
		t.Fatalf("批次執行不應回傳錯誤: %v", err)
	}

	if len(db.reports) != 1 {
		t.Fatalf("預期寫入 1 筆批次報告，實際 %d 筆", len(db.reports))
	}
	report := db.reports[0]
	if report.TotalPosts != 5 {
		t.Errorf("TotalPosts 應為 5，實際 %d", report.TotalPosts)
	}
	if report.FailedPosts != 1 {
		t.Errorf("單筆失敗不應擴散：FailedPosts 應為 1，實際 %d", report.FailedPosts)
	}
	if report.SuccessfulPosts != 4 {
		t.Errorf("SuccessfulPosts 應為 4，實際 %d", report.SuccessfulPosts)
	}
	if msg, ok := db.failedPosts["post-3"]; !ok || !strings.Contains(msg, "模擬的分析失敗") {
		t.Errorf("post-3 應留下失敗原因，實際: %q", msg)
	}
	if db.posts["post-3"].Processed {
		t.Error("失敗的貼文不應標記為 processed")
	}
	if len(db.listings) != 4 {
		t.Errorf("應產出 4 筆刊登，實際 %d 筆", len(db.listings))
	}
}

func TestProcessServiceMatchAndNoMatch(t *testing.T) {
	db := newFakeDBStore()
	db.references = []models.ReferenceProduct{earbudsReference()}

	// $149.99 落在 mid_range 區間（關鍵字 +2、特徵 +1、價格 +3 = 6 > 3）；
	// $299.99 不落在任何區間（6 - 3 = 3，未過門檻）
	db.posts["post-hit"] = &models.SocialPost{ID: "post-hit", ContentType: models.ContentTypeText, Caption: "a"}
	db.posts["post-miss"] = &models.SocialPost{ID: "post-miss", ContentType: models.ContentTypeText, Caption: "b"}

	svc := newProcessServiceForTest(t, db, map[models.ContentType]analyzer.Analyzer{
		models.ContentTypeText: &fakeAnalyzer{results: map[string]models.AnalysisResult{
			"post-hit":  successAnalysis("$149.99"),
			"post-miss": successAnalysis("$299.99"),
		}},
	}, &fakeCounters{})

	if err := svc.Run(); err != nil {
		t.Fatalf("批次執行不應回傳錯誤: %v", err)
	}

	if !db.posts["post-hit"].Processed {
		t.Error("價格落在區間內的貼文應處理成功")
	}
	if len(db.listings) != 1 {
		t.Fatalf("應只產出 1 筆刊登，實際 %d 筆", len(db.listings))
	}
	if db.listings[0].SourcePostID != "post-hit" {
		t.Errorf("刊登來源貼文應為 post-hit，實際 %s", db.listings[0].SourcePostID)
	}
	if db.posts["post-miss"].Processed {
		t.Error("未匹配的貼文不應標記為 processed")
	}
	if msg := db.failedPosts["post-miss"]; !strings.Contains(msg, "找不到匹配") {
		t.Errorf("未匹配的貼文應留下原因，實際: %q", msg)
	}
}

func TestProcessServiceAPICounterDelta(t *testing.T) {
	db := newFakeDBStore()
	db.references = []models.ReferenceProduct{earbudsReference()}
	db.posts["post-1"] = &models.SocialPost{ID: "post-1", ContentType: models.ContentTypeText, Caption: "a"}

	counters := &fakeCounters{calls: 100, errors: 7}
	svc := newProcessServiceForTest(t, db, map[models.ContentType]analyzer.Analyzer{
		models.ContentTypeText: &fakeAnalyzer{results: map[string]models.AnalysisResult{
			"post-1": successAnalysis("$149.99"),
		}},
	}, counters)

	if err := svc.Run(); err != nil {
		t.Fatalf("批次執行不應回傳錯誤: %v", err)
	}

	// 快照差值：本輪沒有新的模型呼叫，統計應為 0 而非累計值
	if db.reports[0].APICalls != 0 || db.reports[0].APIErrors != 0 {
		t.Errorf("API 統計應為本輪差值 0/0，實際 %d/%d", db.reports[0].APICalls, db.reports[0].APIErrors)
	}
}

func TestProcessServiceUnsupportedContentType(t *testing.T) {
	db := newFakeDBStore()
	db.posts["post-1"] = &models.SocialPost{ID: "post-1", ContentType: models.ContentType("audio")}

	svc := newProcessServiceForTest(t, db, map[models.ContentType]analyzer.Analyzer{
		models.ContentTypeText: &fakeAnalyzer{},
	}, nil)

	if err := svc.Run(); err != nil {
		t.Fatalf("批次執行不應回傳錯誤: %v", err)
	}
	if db.reports[0].FailedPosts != 1 {
		t.Errorf("不支援的內容類型應計為失敗，實際 FailedPosts=%d", db.reports[0].FailedPosts)
	}
	if msg := db.failedPosts["post-1"]; !strings.Contains(msg, "不支援的內容類型") {
		t.Errorf("失敗原因應說明內容類型不支援，實際: %q", msg)
	}
}

func TestProcessServiceHonorsReprocessFlag(t *testing.T) {
	db := newFakeDBStore()
	cfg := testConfig()
	cfg.Pipeline.ReprocessFailed = true

	svc, err := NewProcessService(cfg, db, &fakeArtifacts{}, map[models.ContentType]analyzer.Analyzer{
		models.ContentTypeText: &fakeAnalyzer{},
	}, matcher.New(cfg.Matcher), synthesizer.New(db), nil)
	if err != nil {
		t.Fatalf("建立 ProcessService 失敗: %v", err)
	}

	if err := svc.Run(); err != nil {
		t.Fatalf("批次執行不應回傳錯誤: %v", err)
	}
	if !db.lastIncFailed {
		t.Error("reprocessFailed 開啟時應連同失敗貼文一起收集")
	}
	if db.lastLimit != cfg.Pipeline.CollectLimit {
		t.Errorf("收集上限應為 %d，實際 %d", cfg.Pipeline.CollectLimit, db.lastLimit)
	}
}
