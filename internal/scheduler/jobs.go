package scheduler

import (
	"log"

	"SocialListing-admin/internal/services"
)

// IngestJob 是一個排程任務，用於執行來源擷取
type IngestJob struct {
	ingestService *services.IngestService
}

func NewIngestJob(is *services.IngestService) *IngestJob {
	return &IngestJob{ingestService: is}
}

// Run 實現 cron.Job 介面 (github.com/robfig/cron/v3)
func (j *IngestJob) Run() {
	log.Println("資訊：執行排程任務 - 來源擷取...")
	if err := j.ingestService.Run(); err != nil {
		log.Printf("錯誤：來源擷取排程任務執行失敗: %v", err)
	} else {
		log.Println("資訊：來源擷取排程任務執行完成。")
	}
}

// ProcessJob 是一個排程任務，用於執行批次處理
type ProcessJob struct {
	processService *services.ProcessService
}

func NewProcessJob(ps *services.ProcessService) *ProcessJob {
	return &ProcessJob{processService: ps}
}

// Run 實現 cron.Job 介面
func (j *ProcessJob) Run() {
	log.Println("資訊：執行排程任務 - 批次處理...")
	if err := j.processService.Run(); err != nil {
		log.Printf("錯誤：批次處理排程任務執行失敗: %v", err)
	} else {
		log.Println("資訊：批次處理排程任務執行完成。")
	}
}
