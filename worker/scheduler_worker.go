package worker

import (
	"context"
	"log"
	"os"
	"time"

	"reputely/models"
	"reputely/queue"
	"reputely/repository"
)

// SchedulerWorker is the clock of the campaign engine. On every tick it
// promotes scheduled campaigns whose start time has passed and re-queues
// active campaigns holding recipients whose drip timer has elapsed.
type SchedulerWorker struct {
	Campaigns repository.CampaignRepositoryInterface
	Queue     queue.Queue
	Logger    *log.Logger
	Interval  time.Duration
	Now       func() time.Time
}

func NewSchedulerWorker(campaigns repository.CampaignRepositoryInterface, q queue.Queue) *SchedulerWorker {
	return &SchedulerWorker{
		Campaigns: campaigns,
		Queue:     q,
		Logger:    log.New(os.Stdout, "SCHEDULER-WORKER: ", log.LstdFlags),
		Interval:  30 * time.Second,
		Now:       time.Now,
	}
}

func (sw *SchedulerWorker) Start(ctx context.Context) {
	sw.Logger.Println("Scheduler worker started")

	ticker := time.NewTicker(sw.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sw.Logger.Println("Scheduler worker shutting down...")
			return
		case <-ticker.C:
			sw.Tick()
		}
	}
}

// Tick runs one scheduling pass. Exposed so tests can drive the worker
// without the ticker.
func (sw *SchedulerWorker) Tick() {
	sw.promoteScheduled()
	sw.requeueDueDrips()
}

func (sw *SchedulerWorker) promoteScheduled() {
	now := sw.Now()

	due, err := sw.Campaigns.DueScheduled(now)
	if err != nil {
		sw.Logger.Printf("Error fetching due scheduled campaigns: %v", err)
		return
	}

	for _, campaign := range due {
		// The guarded transition loses the race gracefully when another
		// scheduler instance promoted the campaign first.
		moved, err := sw.Campaigns.TransitionStatus(campaign.ID, models.CampaignStatusScheduled, models.CampaignStatusActive, map[string]interface{}{
			"started_at": now,
		})
		if err != nil {
			sw.Logger.Printf("Error activating campaign %d: %v", campaign.ID, err)
			continue
		}
		if !moved {
			continue
		}

		sw.Logger.Printf("Campaign %d activated on schedule", campaign.ID)
		if err := sw.Queue.PublishDispatch(campaign.ID); err != nil {
			sw.Logger.Printf("Error queueing dispatch for campaign %d: %v", campaign.ID, err)
		}
	}
}

func (sw *SchedulerWorker) requeueDueDrips() {
	ids, err := sw.Campaigns.ActiveWithDueDrip(sw.Now())
	if err != nil {
		sw.Logger.Printf("Error fetching campaigns with due drips: %v", err)
		return
	}

	for _, id := range ids {
		if err := sw.Queue.PublishDispatch(id); err != nil {
			sw.Logger.Printf("Error queueing drip dispatch for campaign %d: %v", id, err)
		}
	}
}
