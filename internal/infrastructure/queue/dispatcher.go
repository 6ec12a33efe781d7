package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweetshop/inventory-api/internal/api/metrics"
	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	writeTimeout   = 5 * time.Second
)

// Dispatcher persists stock movements off the request path. Movements are
// routed to a fixed set of workers by hashing the sweet id, so the movements
// of one sweet are written in the order they were recorded.
type Dispatcher struct {
	workers []chan domain.StockMovement
	repo    ports.MovementRepository
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.MovementRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.StockMovement, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.StockMovement, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Cancelling ctx stops them without
// draining; use Close for a graceful stop.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Record queues m for the worker responsible for its sweet. It never blocks:
// when that worker's queue is full, or the dispatcher is closed, m is dropped.
func (d *Dispatcher) Record(m domain.StockMovement) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		metrics.MovementsDroppedTotal.Inc()
		return
	}

	idx := d.shardIndex(m.SweetID)
	select {
	case d.workers[idx] <- m:
		metrics.MovementsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.MovementsDroppedTotal.Inc()
		d.log.Warn().
			Str("sweet_id", m.SweetID).
			Str("kind", string(m.Kind)).
			Int("worker_id", idx).
			Msg("movement queue full, dropping movement")
	}
}

// Close stops accepting movements and waits for queued ones to be written,
// or for ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps a sweet id deterministically to a worker index.
func (d *Dispatcher) shardIndex(sweetID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sweetID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.StockMovement) {
	defer d.wg.Done()
	label := strconv.Itoa(id)

	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			metrics.MovementsQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.write(id, m)
		}
	}
}

func (d *Dispatcher) write(id int, m domain.StockMovement) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	start := time.Now()
	err := d.repo.Insert(ctx, &m)
	result := "ok"
	if err != nil {
		result = "error"
		d.log.Error().Err(err).
			Str("sweet_id", m.SweetID).
			Str("kind", string(m.Kind)).
			Int("worker_id", id).
			Msg("movement write failed")
	}
	metrics.MovementWriteDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
}
