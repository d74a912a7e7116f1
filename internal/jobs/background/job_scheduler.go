package background

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"stocktake/internal/caching"
	"stocktake/internal/models"
	"stocktake/internal/services"
)

// staleCountThreshold flags items whose quantity has not been touched in a
// while; they surface in the logs so a recount can be scheduled.
const staleCountThreshold = 30 * 24 * time.Hour

// JobScheduler manages the app's background jobs
type JobScheduler struct {
	scheduler gocron.Scheduler
	inventory services.InventoryService
	cacheSvc  caching.CacheService
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(inventory services.InventoryService, cacheSvc caching.CacheService) *JobScheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler: scheduler,
		inventory: inventory,
		cacheSvc:  cacheSvc,
		jobs:      make(map[string]gocron.Job),
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
	// Reload the item collection from the store - every 10 minutes
	reloadJob, err := js.scheduler.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(js.reloadInventory, context.Background()),
		gocron.WithName("inventory-reload"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create inventory reload job: %v", err)
	} else {
		js.trackJob("inventory-reload", reloadJob)
	}

	// Shopping summary refresh - every 15 minutes
	summaryJob, err := js.scheduler.NewJob(
		gocron.DurationJob(15*time.Minute),
		gocron.NewTask(js.refreshShoppingSummary, context.Background()),
		gocron.WithName("shopping-summary-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create shopping summary job: %v", err)
	} else {
		js.trackJob("shopping-summary-refresh", summaryJob)
	}

	// Stale count scan - daily
	staleJob, err := js.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(js.scanStaleCounts),
		gocron.WithName("stale-count-scan"),
	)
	if err != nil {
		log.Printf("Failed to create stale count scan job: %v", err)
	} else {
		js.trackJob("stale-count-scan", staleJob)
	}
}

func (js *JobScheduler) trackJob(name string, job gocron.Job) {
	js.mu.Lock()
	js.jobs[name] = job
	js.mu.Unlock()
}

// reloadInventory refreshes the in-memory collection so edits made outside the
// app eventually show up in the grid.
func (js *JobScheduler) reloadInventory(ctx context.Context) {
	if err := js.inventory.Load(ctx); err != nil {
		log.Printf("Inventory reload failed: %v", err)
		return
	}
	log.Printf("Inventory reloaded: %d items", len(js.inventory.Items()))
}

// refreshShoppingSummary recomputes the low-stock badge counts from the live
// collection and caches them for the grid header.
func (js *JobScheduler) refreshShoppingSummary(ctx context.Context) {
	summary := services.CountableSummary(js.inventory.Items())

	if err := js.cacheSvc.SetShoppingSummary(ctx, summary, time.Hour); err != nil {
		log.Printf("Shopping summary refresh failed: %v", err)
		return
	}
	log.Printf("Shopping summary refreshed: %d countable, %d below minimum",
		summary.TotalCounted, summary.NeedsPurchase)
}

// scanStaleCounts logs countable items whose quantity has never been recorded
// or has not been updated within the threshold.
func (js *JobScheduler) scanStaleCounts() {
	cutoff := time.Now().Add(-staleCountThreshold)
	stale := 0
	for _, item := range js.inventory.Items() {
		if !item.Countable() {
			continue
		}
		if item.LastQuantityUpdate == nil || item.LastQuantityUpdate.Before(cutoff) {
			stale++
			log.Printf("Stale count: item %d (%s) last counted %s", item.ID, item.Name, formatLastUpdate(item))
		}
	}
	if stale > 0 {
		log.Printf("Stale count scan: %d items need a recount", stale)
	}
}

func formatLastUpdate(item *models.InventoryItem) string {
	if item.LastQuantityUpdate == nil {
		return "never"
	}
	return item.LastQuantityUpdate.Format("2006-01-02")
}
