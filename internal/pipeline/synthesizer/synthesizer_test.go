package synthesizer

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"SocialListing-admin/internal/models"
)

type fakeFinder struct {
	comparables []models.ComparableProduct
	err         error
}

func (f *fakeFinder) FindComparableListings(category, subcategory string, limit int) ([]models.ComparableProduct, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.comparables) > limit {
		return f.comparables[:limit], nil
	}
	return f.comparables, nil
}

func testReference() *models.ReferenceProduct {
	return &models.ReferenceProduct{
		Category:    "Electronics",
		Subcategory: "Headphones",
		PriceRanges: map[string]models.PriceRange{
			"budget":    {Min: 0, Max: 99},
			"mid_range": {Min: 100, Max: 199},
			"premium":   {Min: 200, Max: 500},
		},
		BaseSpecifications: map[string]string{"Connectivity": "Bluetooth", "Color": "Silver"},
		CommonFeatures:     []string{"Active Noise Cancellation", "Foldable design", "Carry case", "Fast charging"},
		Keywords:           []string{"headphones", "audio"},
	}
}

func testAnalysis() models.AnalysisResult {
	return models.AnalysisResult{
		ProductName:    "Wireless Headphones",
		Category:       "Electronics",
		Description:    "Premium over-ear headphones.",
		Price:          "$299.99",
		KeyFeatures:    []string{"30-hour battery", "Active Noise Cancellation"},
		Specifications: map[string]string{"Color": "Black"},
		SearchKeywords: []string{"wireless headphones", "audio"},
		Status:         models.AnalysisStatusSuccess,
	}
}

func TestSynthesizeMergesSpecificationsAnalysisWins(t *testing.T) {
	s := New(&fakeFinder{})
	listing := s.Synthesize(testAnalysis(), testReference(), "post-1")

	want := map[string]string{"Connectivity": "Bluetooth", "Color": "Black"}
	if !reflect.DeepEqual(listing.Specifications, want) {
		t.Errorf("Specifications = %v, 期望 %v（分析值覆寫參考值）", listing.Specifications, want)
	}
}

func TestSynthesizeDescription(t *testing.T) {
	s := New(&fakeFinder{})
	listing := s.Synthesize(testAnalysis(), testReference(), "post-1")

	if !strings.HasPrefix(listing.Description, "Premium over-ear headphones.") {
		t.Errorf("描述應以分析描述開頭: %q", listing.Description)
	}
	// 子分類段只引用前三項 common features
	if !strings.Contains(listing.Description, "This Headphones comes with Active Noise Cancellation, Foldable design, Carry case.") {
		t.Errorf("描述缺少子分類特徵段: %q", listing.Description)
	}
	// $299.99 落在 premium 區間
	if !strings.Contains(listing.Description, "This premium device") {
		t.Errorf("描述缺少價格層級句: %q", listing.Description)
	}
}

func TestSynthesizeFeatureOrderAndTruncation(t *testing.T) {
	s := New(&fakeFinder{})
	analysis := testAnalysis()
	analysis.KeyFeatures = []string{"f1", "f2", "f3", "f4", "f5", "f6", "f7", "f8"}
	reference := testReference()
	reference.CommonFeatures = []string{"f1", "r1", "r2", "r3", "r4"}

	listing := s.Synthesize(analysis, reference, "post-1")
	want := []string{"f1", "f2", "f3", "f4", "f5", "f6", "f7", "f8", "r1", "r2"}
	if !reflect.DeepEqual(listing.Features, want) {
		t.Errorf("Features = %v, 期望分析特徵先、去重後截到 10 項 %v", listing.Features, want)
	}
}

func TestSynthesizeKeywordUnion(t *testing.T) {
	s := New(&fakeFinder{})
	listing := s.Synthesize(testAnalysis(), testReference(), "post-1")

	seen := map[string]int{}
	for _, keyword := range listing.Keywords {
		seen[strings.ToLower(keyword)]++
	}
	for keyword, count := range seen {
		if count > 1 {
			t.Errorf("關鍵詞 %q 重複出現 %d 次", keyword, count)
		}
	}
	for _, want := range []string{"headphones", "audio", "wireless headphones"} {
		if seen[want] == 0 {
			t.Errorf("關鍵詞聯集缺少 %q", want)
		}
	}
}

func TestSynthesizeDefaultTierAndPriceFallback(t *testing.T) {
	s := New(&fakeFinder{})
	analysis := testAnalysis()
	analysis.Price = ""

	listing := s.Synthesize(analysis, testReference(), "post-1")
	// 無法解析價格時使用 mid_range 層級，價格補為該區間下限
	if listing.Price != "$100.00" {
		t.Errorf("Price = %q, 期望 mid_range 下限 $100.00", listing.Price)
	}
	if !strings.Contains(listing.Description, "mid-range") {
		t.Errorf("描述應帶 mid-range 措辭: %q", listing.Description)
	}
}

func TestPriceTierStableOnSharedBoundary(t *testing.T) {
	reference := testReference()
	// budget 與 mid_range 的邊界重疊，100 同時落在兩個區間
	reference.PriceRanges = map[string]models.PriceRange{
		"budget":    {Min: 0, Max: 100},
		"mid_range": {Min: 100, Max: 199},
		"premium":   {Min: 200, Max: 500},
	}
	analysis := testAnalysis()
	analysis.Price = "$100.00"

	s := New(&fakeFinder{})
	for i := 0; i < 20; i++ {
		listing := s.Synthesize(analysis, reference, "post-1")
		if !strings.Contains(listing.Description, "This affordable device") {
			t.Fatalf("第 %d 次合成的層級不是 budget: %q", i+1, listing.Description)
		}
	}
}

func TestSynthesizeComparableLookupFailureIsAbsorbed(t *testing.T) {
	s := New(&fakeFinder{err: errors.New("db unreachable")})
	listing := s.Synthesize(testAnalysis(), testReference(), "post-1")
	if len(listing.ComparableProducts) != 0 {
		t.Errorf("查詢失敗時 comparable_products 應為空: %v", listing.ComparableProducts)
	}
	if listing.Status != models.ListingStatusDraft {
		t.Errorf("Status = %q, 期望 draft", listing.Status)
	}
}
