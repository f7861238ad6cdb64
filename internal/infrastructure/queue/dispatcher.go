package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/channelpass/platform/internal/core/domain"
	"github.com/channelpass/platform/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher fans handshake audit events out to a fixed set of workers,
// sharded by principal so one principal's events are recorded in order.
type Dispatcher struct {
	workers []chan domain.HandshakeEvent
	service ports.AuditService
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.AuditService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.HandshakeEvent, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.HandshakeEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands an event to the worker responsible for it. A full shard drops
// the event rather than stalling the redemption path.
func (d *Dispatcher) Enqueue(event domain.HandshakeEvent) {
	select {
	case d.workers[d.shardIndex(event)] <- event:
	default:
		d.log.Warn().
			Str("outcome", string(event.Outcome)).
			Msg("audit queue full, event dropped")
	}
}

// shardIndex maps an event deterministically to a worker index. Anonymous
// failures (no principal yet) shard by remote address instead.
func (d *Dispatcher) shardIndex(event domain.HandshakeEvent) int {
	key := event.PrincipalID
	if key == "" {
		key = event.RemoteIP
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.HandshakeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := d.service.Process(ctx, event); err != nil {
				d.log.Error().Err(err).
					Str("outcome", string(event.Outcome)).
					Int("worker_id", id).
					Msg("audit recording failed")
			}
		}
	}
}
