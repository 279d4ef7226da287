package artifacts

import (
	"strings"
	"testing"

	"SocialListing-admin/internal/config"
)

func TestSaveAndReadJSONRoundTrip(t *testing.T) {
	store, err := NewFileSystemStore(config.ArtifactsConfig{BasePath: t.TempDir()})
	if err != nil {
		t.Fatalf("建立 FileSystemStore 失敗: %v", err)
	}

	relativePath, err := store.SaveJSON("reports", "run-20260901", map[string]int{"total_posts": 3})
	if err != nil {
		t.Fatalf("SaveJSON 失敗: %v", err)
	}
	if !strings.HasPrefix(relativePath, "reports") {
		t.Errorf("回傳的相對路徑應以類別開頭，得到 %s", relativePath)
	}

	var got map[string]int
	if err := store.ReadJSON(relativePath, &got); err != nil {
		t.Fatalf("ReadJSON 失敗: %v", err)
	}
	if got["total_posts"] != 3 {
		t.Errorf("讀回的內容不符，得到 %v", got)
	}
}

func TestReadJSONRejectsEscapingPath(t *testing.T) {
	store, err := NewFileSystemStore(config.ArtifactsConfig{BasePath: t.TempDir()})
	if err != nil {
		t.Fatalf("建立 FileSystemStore 失敗: %v", err)
	}

	var dst map[string]int
	for _, path := range []string{"../outside.json", "reports/../../outside.json", "/etc/passwd"} {
		if err := store.ReadJSON(path, &dst); err == nil {
			t.Errorf("路徑 %s 應被拒絕", path)
		}
	}
}
