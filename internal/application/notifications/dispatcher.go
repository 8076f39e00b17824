package notifications

import (
	"context"
	"encoding/json"
	"time"

	"agrofund-backend/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const DefaultQueue = "notifications:purchase"

// flushBatch caps how many pending rows one flush pass picks up.
const flushBatch = 100

// Dispatcher hands committed purchase events to the notification queue the
// external email/PDF worker consumes. The core's obligation ends at "event is
// on the queue": delivery, templating and attachments are the worker's
// problem. Events are outbox rows written inside the purchase transaction, so
// a crash between commit and publish is repaired by FlushPending —
// at-least-once, never before commit.
type Dispatcher struct {
	DB    *gorm.DB
	Rdb   *redis.Client
	Queue string
}

func (d *Dispatcher) queue() string {
	if d.Queue != "" {
		return d.Queue
	}
	return DefaultQueue
}

// Dispatch publishes one committed event and stamps it. Failures are logged
// and swallowed — the purchase stands either way.
func (d *Dispatcher) Dispatch(ctx context.Context, event domain.PurchaseEvent) {
	if err := d.publish(ctx, event); err != nil {
		log.Error().Err(err).
			Str("event_id", event.EventID.String()).
			Str("project_id", event.ProjectID.String()).
			Msg("purchase notification dispatch failed, will be flushed later")
	}
}

func (d *Dispatcher) publish(ctx context.Context, event domain.PurchaseEvent) error {
	body := []byte(event.Payload)
	if len(body) == 0 {
		b, err := json.Marshal(event)
		if err != nil {
			return err
		}
		body = b
	}
	if err := d.Rdb.LPush(ctx, d.queue(), body).Err(); err != nil {
		return err
	}
	now := time.Now()
	return d.DB.WithContext(ctx).Model(&domain.PurchaseEvent{}).
		Where("event_id = ?", event.EventID).
		Update("dispatched_at", now).Error
}

// FlushPending re-publishes events that committed but were never stamped.
// A consumer may therefore see an event twice; it will never see it zero
// times. Publishes run with bounded concurrency.
func (d *Dispatcher) FlushPending(ctx context.Context) error {
	var pending []domain.PurchaseEvent
	if err := d.DB.WithContext(ctx).
		Where("dispatched_at IS NULL").
		Order(`"createdAt" ASC`).
		Limit(flushBatch).
		Find(&pending).Error; err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, ev := range pending {
		ev := ev
		g.Go(func() error {
			if err := d.publish(gctx, ev); err != nil {
				log.Warn().Err(err).Str("event_id", ev.EventID.String()).Msg("outbox flush publish failed")
			}
			return nil
		})
	}
	return g.Wait()
}

// Run flushes the outbox on the given interval until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.FlushPending(ctx); err != nil {
				log.Warn().Err(err).Msg("outbox flush failed")
			}
		}
	}
}
