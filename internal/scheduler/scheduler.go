package scheduler

import (
	"log"
	"time"

	"SocialListing-admin/internal/services"

	"github.com/robfig/cron/v3"
)

// Scheduler 結構
type Scheduler struct {
	cron       *cron.Cron
	ingestJob  *IngestJob
	processJob *ProcessJob
}

// NewScheduler 依 Cron 表達式註冊擷取與批次處理任務。
// ingestService 可為 nil（未設定任何來源時），此時不排程擷取任務。
func NewScheduler(
	is *services.IngestService,
	ps *services.ProcessService,
	ingestCronSpec string,
	processCronSpec string,
) *Scheduler {
	c := cron.New(cron.WithSeconds())

	var ingestJob *IngestJob
	if is != nil && ingestCronSpec != "" {
		ingestJob = NewIngestJob(is)
		if _, err := c.AddJob(ingestCronSpec, ingestJob); err != nil {
			log.Fatalf("錯誤：無法新增來源擷取任務到排程器 (spec: %s): %v", ingestCronSpec, err)
		}
		log.Printf("資訊：來源擷取任務已註冊，排程：%s\n", ingestCronSpec)
	} else {
		log.Println("警告：未設定來源擷取任務，該任務將不會被排程。")
	}

	processJob := NewProcessJob(ps)
	if processCronSpec != "" {
		if _, err := c.AddJob(processCronSpec, processJob); err != nil {
			log.Fatalf("錯誤：無法新增批次處理任務到排程器 (spec: %s): %v", processCronSpec, err)
		}
		log.Printf("資訊：批次處理任務已註冊，排程：%s\n", processCronSpec)
	} else {
		log.Println("警告：未提供批次處理任務的 Cron 表達式，該任務將不會被排程。")
	}

	return &Scheduler{
		cron:       c,
		ingestJob:  ingestJob,
		processJob: processJob,
	}
}

// Start 非阻塞啟動排程器
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("資訊：排程器已非阻塞啟動 (如果任務已註冊)。")
}

// Stop 優雅停止排程器，等待運行中任務完成
func (s *Scheduler) Stop() {
	log.Println("資訊：正在停止排程器...")
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
		log.Println("資訊：排程器已優雅停止，所有運行中任務已完成。")
	case <-time.After(10 * time.Second):
		log.Println("警告：排程器停止超時，可能仍有任務在執行。")
	}
}
