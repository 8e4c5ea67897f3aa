package queue

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/myrewards/loyalty-system/internal/api/metrics"
	"github.com/myrewards/loyalty-system/internal/core/domain"
	"github.com/myrewards/loyalty-system/internal/core/ports"
)

const (
	defaultWorkers = 8
	defaultTimeout = 5 * time.Second
	channelBuffer  = 256
)

var ErrDispatcherStopped = fmt.Errorf("scan dispatcher stopped: %w", domain.ErrUnavailable)

type scanReply struct {
	result *ports.ScanResult
	err    error
}

type scanJob struct {
	ctx   context.Context
	in    ports.ScanInput
	reply chan scanReply
}

// Dispatcher routes scans to a fixed set of workers using consistent hashing
// on the user id, so scans of one user are applied one at a time and in
// arrival order.
type Dispatcher struct {
	workers []chan scanJob
	scanner ports.Scanner
	timeout time.Duration
	log     zerolog.Logger

	// done closes when Start's ctx ends and no new jobs are accepted.
	// stopped closes once every worker has returned.
	done    chan struct{}
	stopped chan struct{}
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers in front
// of scanner. If numWorkers <= 0, defaultWorkers is used. timeout bounds each
// scan once a worker picks it up.
func NewDispatcher(numWorkers int, timeout time.Duration, scanner ports.Scanner, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	d := &Dispatcher{
		workers: make([]chan scanJob, numWorkers),
		scanner: scanner,
		timeout: timeout,
		log:     log,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for i := range d.workers {
		d.workers[i] = make(chan scanJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled:
// a scan already being processed runs to completion and its caller gets the
// result, while jobs still queued fail with ErrDispatcherStopped.
func (d *Dispatcher) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for i, ch := range d.workers {
		wg.Add(1)
		go func(i int, ch chan scanJob) {
			defer wg.Done()
			d.runWorker(ctx, i, ch)
		}(i, ch)
	}
	go func() {
		<-ctx.Done()
		close(d.done)
		wg.Wait()
		close(d.stopped)
	}()
}

// Scan enqueues in on the worker that owns in.UserID and waits for the result.
func (d *Dispatcher) Scan(ctx context.Context, in ports.ScanInput) (*ports.ScanResult, error) {
	idx := d.shardIndex(in.UserID)
	job := scanJob{ctx: ctx, in: in, reply: make(chan scanReply, 1)}

	select {
	case <-d.done:
		return nil, ErrDispatcherStopped
	default:
	}

	select {
	case d.workers[idx] <- job:
		metrics.ScanQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-d.done:
		return nil, ErrDispatcherStopped
	}

	select {
	case r := <-job.reply:
		return r.result, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-d.stopped:
		// the worker may have replied just before returning
		select {
		case r := <-job.reply:
			return r.result, r.err
		default:
			return nil, ErrDispatcherStopped
		}
	}
}

// shardIndex maps a user id deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan scanJob) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			d.drain(label, ch)
			return
		case job := <-ch:
			metrics.ScanQueueDepth.WithLabelValues(label).Dec()
			job.reply <- d.process(job, id)
		}
	}
}

// drain fails every job still buffered for a stopping worker.
func (d *Dispatcher) drain(label string, ch <-chan scanJob) {
	for {
		select {
		case job := <-ch:
			metrics.ScanQueueDepth.WithLabelValues(label).Dec()
			job.reply <- scanReply{err: ErrDispatcherStopped}
		default:
			return
		}
	}
}

func (d *Dispatcher) process(job scanJob, workerID int) scanReply {
	// the caller may have given up while the job was queued
	if err := job.ctx.Err(); err != nil {
		return scanReply{err: err}
	}

	ctx, cancel := context.WithTimeout(job.ctx, d.timeout)
	defer cancel()

	start := time.Now()
	res, err := d.scanner.Scan(ctx, job.in)
	result := "ok"
	if err != nil {
		result = "error"
		d.log.Debug().Err(err).
			Str("user_id", job.in.UserID).
			Int("worker_id", workerID).
			Msg("scan processing failed")
	}
	metrics.ScanProcessingDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	return scanReply{result: res, err: err}
}
