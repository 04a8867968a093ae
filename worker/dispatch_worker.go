package worker

import (
	"context"
	"log"
	"os"

	"reputely/queue"
	"reputely/services"
)

const dispatchMaxRetries = 3

// DispatchWorker consumes dispatch jobs off the broker queue and drives
// campaign sending. Failing jobs are redelivered by the queue up to
// dispatchMaxRetries times.
type DispatchWorker struct {
	Queue    *queue.AMQPQueue
	Dispatch *services.DispatchService
	logger   *log.Logger
}

func NewDispatchWorker(q *queue.AMQPQueue, d *services.DispatchService) *DispatchWorker {
	return &DispatchWorker{
		Queue:    q,
		Dispatch: d,
		logger:   log.New(os.Stdout, "DISPATCH-WORKER: ", log.LstdFlags),
	}
}

// Start blocks consuming jobs until the broker channel closes.
func (w *DispatchWorker) Start(ctx context.Context) error {
	w.logger.Println("Starting campaign dispatch worker")

	return w.Queue.Consume(func(job queue.DispatchJob) error {
		w.logger.Printf("Processing dispatch job for campaign %d", job.CampaignID)
		return w.Dispatch.ProcessCampaign(ctx, job.CampaignID)
	}, dispatchMaxRetries)
}
