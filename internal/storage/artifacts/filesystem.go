package artifacts

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"SocialListing-admin/internal/config"
)

// FileSystemStore 把管線產物（分析結果、批次報告）以 JSON 檔
// 落在本地檔案系統，方便離線檢視與除錯。
type FileSystemStore struct {
	basePath string
}

// NewFileSystemStore 建立 FileSystemStore 實例。
// 它會檢查 basePath 是否存在，如果不存在則嘗試建立它。
func NewFileSystemStore(cfg config.ArtifactsConfig) (*FileSystemStore, error) {
	if cfg.BasePath == "" {
		return nil, fmt.Errorf("Artifacts 設定中的 basePath 不得為空")
	}

	absBasePath, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("無法取得 artifacts basePath 的絕對路徑 '%s': %w", cfg.BasePath, err)
	}

	if _, err := os.Stat(absBasePath); os.IsNotExist(err) {
		log.Printf("資訊：產物根目錄 '%s' 不存在，正在嘗試建立...", absBasePath)
		if err := os.MkdirAll(absBasePath, os.ModePerm); err != nil {
			return nil, fmt.Errorf("無法建立產物根目錄 '%s': %w", absBasePath, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("檢查產物根目錄 '%s' 時發生錯誤: %w", absBasePath, err)
	}

	log.Printf("資訊：FileSystemStore 初始化成功，產物根路徑設定為: %s", absBasePath)
	return &FileSystemStore{basePath: absBasePath}, nil
}

// buildTargetPath 以 kind/日期/ID.json 的層級組織產物檔案，
// 例如 /basePath/analyses/2025/05/24/post-id.json。
func (fs *FileSystemStore) buildTargetPath(kind string, id string) string {
	datePath := time.Now().Format("2006/01/02")
	safeKind := filepath.Clean(kind)
	safeID := filepath.Base(filepath.Clean(id))
	return filepath.Join(fs.basePath, safeKind, datePath, safeID+".json")
}

// SaveJSON 把任意結構序列化成縮排 JSON 寫到指定類別下，回傳相對路徑
func (fs *FileSystemStore) SaveJSON(kind string, id string, v interface{}) (string, error) {
	if kind == "" || id == "" {
		return "", fmt.Errorf("SaveJSON 參數 kind 與 id 不得為空")
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化產物 (%s/%s) 失敗: %w", kind, id, err)
	}

	targetPath := fs.buildTargetPath(kind, id)
	targetDir := filepath.Dir(targetPath)
	if _, err := os.Stat(targetDir); os.IsNotExist(err) {
		if err := os.MkdirAll(targetDir, os.ModePerm); err != nil {
			return "", fmt.Errorf("無法建立產物目錄 '%s': %w", targetDir, err)
		}
	}

	if err := os.WriteFile(targetPath, data, 0644); err != nil {
		return "", fmt.Errorf("無法寫入產物檔案到 '%s': %w", targetPath, err)
	}

	relativePath, err := filepath.Rel(fs.basePath, targetPath)
	if err != nil {
		log.Printf("警告：無法取得相對於 basePath '%s' 的相對路徑，將回傳絕對路徑 '%s': %v", fs.basePath, targetPath, err)
		return targetPath, nil
	}
	return relativePath, nil
}

// ReadJSON 依相對路徑讀回產物並反序列化到 dst
func (fs *FileSystemStore) ReadJSON(relativePath string, dst interface{}) error {
	if relativePath == "" {
		return fmt.Errorf("ReadJSON 參數 relativePath 不得為空")
	}
	if filepath.IsAbs(relativePath) {
		return fmt.Errorf("產物路徑 '%s' 不得為絕對路徑", relativePath)
	}
	cleaned := filepath.Clean(relativePath)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) {
		return fmt.Errorf("產物路徑 '%s' 超出產物根目錄", relativePath)
	}
	absPath := filepath.Join(fs.basePath, cleaned)

	data, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("無法讀取產物檔案 '%s': %w", absPath, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("反序列化產物檔案 '%s' 失敗: %w", absPath, err)
	}
	return nil
}
