package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"SocialListing-admin/internal/models"
)

// fakeDBStore 只實作測試需要的行為，其餘方法回傳零值
type fakeDBStore struct {
	mu       sync.Mutex
	posts    map[string]*models.SocialPost
	listings []models.Listing
	reports  []models.ProcessingMetrics
}

func newFakeDBStore() *fakeDBStore {
	return &fakeDBStore{posts: map[string]*models.SocialPost{}}
}

func (f *fakeDBStore) Close() error { return nil }

func (f *fakeDBStore) InsertPost(post *models.SocialPost) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts[post.ID] = post
	return nil
}

func (f *fakeDBStore) InsertPostIfNew(post *models.SocialPost) (bool, error) {
	return true, f.InsertPost(post)
}

func (f *fakeDBStore) GetPostByID(id string) (*models.SocialPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posts[id], nil
}

func (f *fakeDBStore) GetUnprocessedPosts(limit int, includeFailed bool) ([]models.SocialPost, error) {
	return nil, nil
}

func (f *fakeDBStore) MarkPostProcessed(postID string, analysis json.RawMessage, referenceID int64) error {
	return nil
}

func (f *fakeDBStore) MarkPostFailed(postID string, message string) error { return nil }

func (f *fakeDBStore) GetReferencesByCategory(category string, limit int) ([]models.ReferenceProduct, error) {
	return nil, nil
}

func (f *fakeDBStore) InsertListing(listing *models.Listing) (int64, error) { return 1, nil }

func (f *fakeDBStore) GetListings(limit int, offset int) ([]models.Listing, error) {
	return f.listings, nil
}

func (f *fakeDBStore) SearchListings(searchTerm string, limit int) ([]models.Listing, error) {
	return f.listings, nil
}

func (f *fakeDBStore) FindComparableListings(category string, subcategory string, limit int) ([]models.ComparableProduct, error) {
	return nil, nil
}

func (f *fakeDBStore) InsertProcessingReport(metrics *models.ProcessingMetrics) error { return nil }

func (f *fakeDBStore) GetProcessingReports(limit int) ([]models.ProcessingMetrics, error) {
	return f.reports, nil
}

type fakeProcessor struct{}

func (f *fakeProcessor) ProcessPost(ctx context.Context, post models.SocialPost) error { return nil }

// blockingRunner 在 Run 中卡住直到被放行，用來佔住忙碌旗標
type blockingRunner struct {
	release chan struct{}
}

func (r *blockingRunner) Run() error {
	<-r.release
	return nil
}

func decodeReply(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var reply map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&reply); err != nil {
		t.Fatalf("回應不是合法 JSON: %v", err)
	}
	return reply
}

func TestUploadReplyCarriesStatusField(t *testing.T) {
	handler := NewUploadHandler(newFakeDBStore(), &fakeProcessor{})

	body := strings.NewReader(`{"content_type":"text","caption":"全新無線耳機，音質很棒"}`)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("狀態碼 = %d, 期望 202", rec.Code)
	}
	reply := decodeReply(t, rec)
	if reply["status"] != "success" {
		t.Errorf(`status = %v, 期望 "success"（回應鍵：%v）`, reply["status"], reply)
	}
	if id, _ := reply["id"].(string); id == "" {
		t.Error("成功回應應帶非空的 id")
	}
}

func TestUploadRejectionIsJSONError(t *testing.T) {
	handler := NewUploadHandler(newFakeDBStore(), &fakeProcessor{})

	body := strings.NewReader(`{"content_type":"audio","caption":"不支援的類型"}`)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("狀態碼 = %d, 期望 400", rec.Code)
	}
	reply := decodeReply(t, rec)
	if reply["status"] != "error" {
		t.Errorf(`status = %v, 期望 "error"`, reply["status"])
	}
	if msg, _ := reply["message"].(string); msg == "" {
		t.Error("錯誤回應應帶 message")
	}
}

func TestListingsEnvelope(t *testing.T) {
	db := newFakeDBStore()
	db.listings = []models.Listing{{ID: 1, Title: "Wireless Earbuds"}}
	handler := NewListingsHandler(db)

	req := httptest.NewRequest(http.MethodGet, "/listings", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	reply := decodeReply(t, rec)
	if reply["status"] != "success" {
		t.Errorf(`status = %v, 期望 "success"`, reply["status"])
	}
	if count, _ := reply["count"].(float64); count != 1 {
		t.Errorf("count = %v, 期望 1", reply["count"])
	}
}

func TestListingSearchMissingQueryIsJSONError(t *testing.T) {
	handler := NewListingSearchHandler(newFakeDBStore())

	req := httptest.NewRequest(http.MethodGet, "/listings/search", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("狀態碼 = %d, 期望 400", rec.Code)
	}
	if reply := decodeReply(t, rec); reply["status"] != "error" {
		t.Errorf(`status = %v, 期望 "error"`, reply["status"])
	}
}

func TestReportsEnvelope(t *testing.T) {
	db := newFakeDBStore()
	db.reports = []models.ProcessingMetrics{{TotalPosts: 5, SuccessfulPosts: 4, FailedPosts: 1}}
	handler := NewReportsHandler(db)

	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	reply := decodeReply(t, rec)
	if reply["status"] != "success" {
		t.Errorf(`status = %v, 期望 "success"`, reply["status"])
	}
}

func TestTriggerProcessBusyReturnsJSONConflict(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{})}
	defer close(runner.release)
	handler := NewTriggerProcessHandler(runner)

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/manual-process", nil))
	if reply := decodeReply(t, first); reply["status"] != "success" {
		t.Fatalf(`第一次觸發 status = %v, 期望 "success"`, reply["status"])
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/manual-process", nil))
	if second.Code != http.StatusConflict {
		t.Fatalf("重複觸發的狀態碼 = %d, 期望 409", second.Code)
	}
	if reply := decodeReply(t, second); reply["status"] != "error" {
		t.Errorf(`重複觸發 status = %v, 期望 "error"`, reply["status"])
	}
}

// fakeArtifactReader 以相對路徑對應預存的 JSON 內容
type fakeArtifactReader struct {
	files map[string]string
}

func (f *fakeArtifactReader) ReadJSON(relativePath string, dst interface{}) error {
	content, ok := f.files[relativePath]
	if !ok {
		return fmt.Errorf("找不到產物 %s", relativePath)
	}
	return json.Unmarshal([]byte(content), dst)
}

func TestArtifactHandlerReturnsStoredArtifact(t *testing.T) {
	reader := &fakeArtifactReader{files: map[string]string{
		"reports/2026/09/01/run-1.json": `{"total_posts":3}`,
	}}
	handler := NewArtifactHandler(reader)

	req := httptest.NewRequest(http.MethodGet, "/artifacts?path=reports/2026/09/01/run-1.json", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("狀態碼 = %d, 期望 200", rec.Code)
	}
	reply := decodeReply(t, rec)
	if reply["status"] != "success" {
		t.Errorf(`status = %v, 期望 "success"`, reply["status"])
	}
	artifact, _ := reply["artifact"].(map[string]interface{})
	if artifact["total_posts"] != float64(3) {
		t.Errorf("artifact = %v, 期望帶 total_posts: 3", reply["artifact"])
	}
}

func TestArtifactHandlerRejectsEscapingPath(t *testing.T) {
	handler := NewArtifactHandler(&fakeArtifactReader{files: map[string]string{}})

	for _, path := range []string{"../secret.json", "reports/../../secret.json", "/etc/passwd"} {
		req := httptest.NewRequest(http.MethodGet, "/artifacts?path="+path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("路徑 %s 的狀態碼 = %d, 期望 400", path, rec.Code)
		}
	}
}
