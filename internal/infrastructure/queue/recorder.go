package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/dulytrade/portal-api/internal/api/metrics"
	"github.com/dulytrade/portal-api/internal/core/domain"
	"github.com/dulytrade/portal-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Recorder drains audit events to the activity store on a fixed set of
// workers sharded by user ID, keeping per-user event ordering. Enqueueing
// never blocks: when a shard is full the event is dropped, because audit
// writes must never slow down or fail an auth decision.
type Recorder struct {
	workers []chan domain.ActivityEvent
	store   ports.ActivityStore
	log     zerolog.Logger
}

// NewRecorder creates a Recorder with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewRecorder(numWorkers int, store ports.ActivityStore, log zerolog.Logger) *Recorder {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	r := &Recorder{
		workers: make([]chan domain.ActivityEvent, numWorkers),
		store:   store,
		log:     log,
	}
	for i := range r.workers {
		r.workers[i] = make(chan domain.ActivityEvent, channelBuffer)
	}
	return r
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (r *Recorder) Start(ctx context.Context) {
	for i, ch := range r.workers {
		go r.runWorker(ctx, i, ch)
	}
}

// Record enqueues an event for its user's worker without blocking.
func (r *Recorder) Record(event domain.ActivityEvent) {
	select {
	case r.workers[r.shardIndex(event.UserID)] <- event:
	default:
		metrics.ActivityDroppedTotal.Inc()
		r.log.Warn().Str("type", string(event.Type)).Msg("activity event dropped: shard full")
	}
}

// shardIndex maps a user ID deterministically to a worker index.
func (r *Recorder) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32()) % len(r.workers)
}

func (r *Recorder) runWorker(ctx context.Context, id int, ch <-chan domain.ActivityEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := r.store.Insert(ctx, event); err != nil {
				metrics.ActivityErrorsTotal.Inc()
				r.log.Error().Err(err).
					Str("type", string(event.Type)).
					Int("worker_id", id).
					Msg("activity write failed")
			}
		}
	}
}
