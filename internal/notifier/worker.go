package notifier

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/preferredrecruit/intake-gateway/internal/kafka"
	"github.com/preferredrecruit/intake-gateway/internal/metrics"
	"github.com/preferredrecruit/intake-gateway/internal/model"
)

// Worker consumes notification events from Kafka and fans each one out to
// every configured endpoint. Delivery is fire-and-forget from the webhook
// path's point of view: failures here are logged and counted, never fed back
// into intake.
type Worker struct {
	Consumer  *kafka.Consumer
	Endpoints []Endpoint
}

func NewWorker(consumer *kafka.Consumer, endpoints []Endpoint) *Worker {
	return &Worker{Consumer: consumer, Endpoints: endpoints}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		m, err := w.Consumer.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[notifier] kafka fetch err: %v", err)
			time.Sleep(200 * time.Millisecond)
			continue
		}

		w.processOne(ctx, m)

		if err := w.Consumer.Commit(ctx, m); err != nil {
			log.Printf("[notifier] kafka commit err: %v", err)
		}
	}
}

func (w *Worker) processOne(ctx context.Context, m kafka.Message) {
	var ev model.NotificationEvent
	if err := json.Unmarshal(m.Value, &ev); err != nil || ev.AthleteID == "" {
		// poison message: commit and move on
		log.Printf("[notifier] bad event json: %v", err)
		return
	}

	for _, ep := range w.Endpoints {
		if !ep.Ready() || !ep.Acquire() {
			metrics.NotificationsTotal.WithLabelValues(ep.Name(), "failed").Inc()
			log.Printf("[notifier] endpoint %s not ready, dropping %s", ep.Name(), ev.Type)
			continue
		}

		if err := ep.Send(ctx, ev); err != nil {
			metrics.NotificationsTotal.WithLabelValues(ep.Name(), "failed").Inc()
			log.Printf("[notifier] endpoint %s send err: %v", ep.Name(), err)
			continue
		}
		metrics.NotificationsTotal.WithLabelValues(ep.Name(), "sent").Inc()
	}
}
