package background

import (
	"context"
	"log"
	"sync"
	"time"

	"aquabill/internal/reporting"
	"aquabill/internal/repositories"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler manages recurring housekeeping: overdue bill marking and
// dashboard cache refresh.
type JobScheduler struct {
	scheduler    gocron.Scheduler
	billRepo     repositories.BillRepository
	reportingSvc *reporting.Service
	jobs         map[string]gocron.Job
	mu           sync.RWMutex
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(billRepo repositories.BillRepository, reportingSvc *reporting.Service) *JobScheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler:    scheduler,
		billRepo:     billRepo,
		reportingSvc: reportingSvc,
		jobs:         make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js
}

// Start starts the job scheduler
func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// registerJobs registers all background jobs
func (js *JobScheduler) registerJobs() {
	// Overdue marking - every hour
	overdueJob, err := js.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(js.markOverdueBills),
		gocron.WithName("overdue-bill-marking"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create overdue marking job: %v", err)
	} else {
		js.setJob("overdue", overdueJob)
	}

	// Dashboard refresh - every 5 minutes
	dashboardJob, err := js.scheduler.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(js.refreshDashboard),
		gocron.WithName("dashboard-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create dashboard refresh job: %v", err)
	} else {
		js.setJob("dashboard", dashboardJob)
	}
}

func (js *JobScheduler) setJob(name string, job gocron.Job) {
	js.mu.Lock()
	defer js.mu.Unlock()
	js.jobs[name] = job
}

// markOverdueBills flips unpaid bills past their due date to overdue
func (js *JobScheduler) markOverdueBills() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	affected, err := js.billRepo.MarkOverdue(ctx, time.Now())
	if err != nil {
		log.Printf("Failed to mark overdue bills: %v", err)
		return
	}
	if affected > 0 {
		log.Printf("Marked %d bills as overdue", affected)
	}
}

// refreshDashboard recomputes the cached dashboard aggregates
func (js *JobScheduler) refreshDashboard() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := js.reportingSvc.RefreshDashboard(ctx); err != nil {
		log.Printf("Failed to refresh dashboard report: %v", err)
	}
}
