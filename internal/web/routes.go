package web

import (
	"log"
	"net/http"

	"SocialListing-admin/internal/web/handlers"
)

// SetupRouter 組裝所有 HTTP 路由。
// processor 負責單筆貼文的背景分析（/upload），
// processRunner 與 ingestRunner 負責整輪批次任務的手動觸發。
func SetupRouter(db handlers.DBStore, processor handlers.PostProcessor, processRunner handlers.ProcessRunner, ingestRunner handlers.IngestRunner, artifacts handlers.ArtifactReader) http.Handler {
	if db == nil {
		log.Panicln("SetupRouter：DBStore 不得為空")
	}
	if processor == nil || processRunner == nil {
		log.Panicln("SetupRouter：Processor 不得為空")
	}

	mux := http.NewServeMux()

	mux.Handle("/upload", handlers.NewUploadHandler(db, processor))
	mux.Handle("/status", handlers.NewStatusHandler(db))
	mux.Handle("/listings", handlers.NewListingsHandler(db))
	mux.Handle("/listings/search", handlers.NewListingSearchHandler(db))
	mux.Handle("/reports", handlers.NewReportsHandler(db))
	if artifacts != nil {
		mux.Handle("/artifacts", handlers.NewArtifactHandler(artifacts))
	}
	mux.Handle("/manual-process", handlers.NewTriggerProcessHandler(processRunner))

	// 沒有設定任何來源時不掛擷取路由
	if ingestRunner != nil {
		mux.Handle("/manual-ingest", handlers.NewTriggerIngestHandler(ingestRunner))
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/listings", http.StatusFound)
			return
		}
		log.Printf("警告：未匹配的路由: %s", r.URL.Path)
		http.NotFound(w, r)
	})

	log.Println("資訊：HTTP 路由設定完成。")
	return mux
}
