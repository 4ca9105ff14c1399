package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/PixelBlog/internal/pkg/cache"
)

const (
	// Redis keys
	JobKeyPrefix     = "job:"
	JobQueueKey      = "job_queue"
	JobProcessingKey = "job_processing"
	JobFailedKey     = "job_failed"
	JobStatsKey      = "job_stats"

	DefaultWorkers = 3
	JobTTL         = 24 * time.Hour

	// A job picked up this many times without finishing is dead-lettered by the sweeper
	MaxAttempts = 3

	StuckJobMaxAge     = 10 * time.Minute
	StuckSweepInterval = 1 * time.Minute

	dequeueTimeout = time.Second
	errorBackoff   = time.Second
)

// job_stats hash fields
const (
	statEnqueued  = "enqueued"
	statCompleted = "completed"
	statFailed    = "failed"
	statRecovered = "recovered"
)

var ErrUnknownJobType = errors.New("unknown job type")

// Handler runs one job. A returned error moves the job to the failed list.
type Handler func(ctx context.Context, job *Job) error

// Stats is a snapshot of the queue lists and lifetime counters
type Stats struct {
	Pending    int64
	Processing int64
	Failed     int64
	Enqueued   int64
	Completed  int64
	FailedJobs int64
	Recovered  int64
}

// Queue is a Redis list queue: job_queue holds pending ids, job_processing
// holds ids a worker has taken, job_failed holds dead letters.
type Queue struct {
	client     *redis.Client
	workers    int
	handlers   map[JobType]Handler
	stuckAfter time.Duration
	now        func() time.Time

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewQueue creates a job queue on the shared cache client
func NewQueue(workers int) *Queue {
	return NewQueueWithClient(cache.GetClient(), workers)
}

// NewQueueWithClient creates a job queue on a dedicated Redis client with the
// post-created handler registered
func NewQueueWithClient(client *redis.Client, workers int) *Queue {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	q := &Queue{
		client:     client,
		workers:    workers,
		handlers:   make(map[JobType]Handler),
		stuckAfter: StuckJobMaxAge,
		now:        time.Now,
		stopCh:     make(chan struct{}),
	}
	q.Handle(JobTypePostCreated, handlePostCreated)
	return q
}

// Handle registers h for jobType, replacing any earlier handler
func (q *Queue) Handle(jobType JobType, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = h
}

func (q *Queue) handler(jobType JobType) Handler {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.handlers[jobType]
}

// Start launches the workers and the stuck-job sweeper
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}

	q.stopCh = make(chan struct{})
	q.running = true
	log.Infof("[JobQueue] Starting %d workers", q.workers)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i, q.stopCh)
	}

	q.wg.Add(1)
	go q.stuckSweeper(q.stopCh, StuckSweepInterval)
}

// Stop waits for in-flight jobs to finish
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	log.Info("[JobQueue] Stopping workers...")
	close(q.stopCh)
	q.running = false
	q.mu.Unlock()

	q.wg.Wait()
	log.Info("[JobQueue] All workers stopped")
}

func (q *Queue) worker(id int, stopCh <-chan struct{}) {
	defer q.wg.Done()
	log.Infof("[JobQueue] Worker %d started", id)

	ctx := context.Background()
	for {
		select {
		case <-stopCh:
			log.Infof("[JobQueue] Worker %d stopping", id)
			return
		default:
		}

		job, err := q.dequeue(ctx)
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				log.Errorf("[JobQueue] Worker %d: Error dequeuing job: %v", id, err)
				select {
				case <-stopCh:
				case <-time.After(errorBackoff):
				}
			}
			continue
		}
		if job != nil {
			q.run(ctx, job)
		}
	}
}

func (q *Queue) stuckSweeper(stopCh <-chan struct{}, interval time.Duration) {
	defer q.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if err := q.sweep(context.Background()); err != nil {
				log.Errorf("[JobQueue] Sweep failed: %v", err)
			}
		}
	}
}

// Enqueue stores the job and pushes its id in one transaction
func (q *Queue) Enqueue(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.Set(ctx, JobKeyPrefix+job.ID, data, JobTTL)
	pipe.LPush(ctx, JobQueueKey, job.ID)
	pipe.HIncrBy(ctx, JobStatsKey, statEnqueued, 1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", job.ID, err)
	}

	log.Debugf("[JobQueue] Enqueued job %s (%s)", job.ID, job.Type)
	return nil
}

// dequeue moves the next id to job_processing and marks the job started.
// It returns redis.Nil when nothing arrived within dequeueTimeout.
func (q *Queue) dequeue(ctx context.Context) (*Job, error) {
	id, err := q.client.BRPopLPush(ctx, JobQueueKey, JobProcessingKey, dequeueTimeout).Result()
	if err != nil {
		return nil, err
	}

	job, err := q.GetJob(ctx, id)
	if err != nil {
		// expired or unreadable envelope; nothing left to run
		q.client.LRem(ctx, JobProcessingKey, 1, id)
		if errors.Is(err, redis.Nil) {
			log.Warnf("[JobQueue] Dropping job %s without data", id)
			return nil, nil
		}
		return nil, err
	}

	job.start(q.now())
	if err := q.save(ctx, job); err != nil {
		log.Errorf("[JobQueue] Failed to mark job %s as processing: %v", job.ID, err)
	}
	return job, nil
}

func (q *Queue) run(ctx context.Context, job *Job) {
	h := q.handler(job.Type)
	if h == nil {
		q.deadLetter(ctx, job, fmt.Errorf("%w: %s", ErrUnknownJobType, job.Type))
		return
	}
	if err := h(ctx, job); err != nil {
		q.deadLetter(ctx, job, err)
		return
	}
	q.complete(ctx, job)
}

// complete drops the envelope; finished jobs are only counted
func (q *Queue) complete(ctx context.Context, job *Job) {
	pipe := q.client.TxPipeline()
	pipe.Del(ctx, JobKeyPrefix+job.ID)
	pipe.LRem(ctx, JobProcessingKey, 1, job.ID)
	pipe.HIncrBy(ctx, JobStatsKey, statCompleted, 1)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Errorf("[JobQueue] Failed to complete job %s: %v", job.ID, err)
	}
}

// deadLetter keeps the envelope with its error for inspection
func (q *Queue) deadLetter(ctx context.Context, job *Job, cause error) {
	log.Errorf("[JobQueue] Job %s (%s) failed: %v", job.ID, job.Type, cause)
	job.fail(cause)

	data, err := json.Marshal(job)
	if err != nil {
		log.Errorf("[JobQueue] Failed to marshal job %s: %v", job.ID, err)
		return
	}

	pipe := q.client.TxPipeline()
	pipe.Set(ctx, JobKeyPrefix+job.ID, data, JobTTL)
	pipe.LRem(ctx, JobProcessingKey, 1, job.ID)
	pipe.LPush(ctx, JobFailedKey, job.ID)
	pipe.HIncrBy(ctx, JobStatsKey, statFailed, 1)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Errorf("[JobQueue] Failed to dead-letter job %s: %v", job.ID, err)
	}
}

// sweep puts jobs a crashed worker left in job_processing back on the queue.
// A job that has already been started MaxAttempts times is dead-lettered.
func (q *Queue) sweep(ctx context.Context) error {
	ids, err := q.client.LRange(ctx, JobProcessingKey, 0, -1).Result()
	if err != nil {
		return err
	}

	now := q.now()
	for _, id := range ids {
		job, err := q.GetJob(ctx, id)
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				log.Errorf("[JobQueue] Sweeper cannot read job %s: %v", id, err)
			}
			q.client.LRem(ctx, JobProcessingKey, 1, id)
			continue
		}
		if job.Status != JobStatusProcessing {
			q.client.LRem(ctx, JobProcessingKey, 1, id)
			continue
		}

		age := now.Sub(job.runningSince())
		if age <= q.stuckAfter {
			continue
		}
		if job.Attempts >= MaxAttempts {
			q.deadLetter(ctx, job, fmt.Errorf("abandoned after %d attempts", job.Attempts))
			continue
		}

		log.Warnf("[JobQueue] Recovering stuck job %s (%s) after %s", job.ID, job.Type, age)
		if err := q.requeue(ctx, job); err != nil {
			log.Errorf("[JobQueue] Failed to requeue job %s: %v", job.ID, err)
		}
	}
	return nil
}

func (q *Queue) requeue(ctx context.Context, job *Job) error {
	job.release()
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	pipe := q.client.TxPipeline()
	pipe.Set(ctx, JobKeyPrefix+job.ID, data, JobTTL)
	pipe.LRem(ctx, JobProcessingKey, 1, job.ID)
	pipe.RPush(ctx, JobQueueKey, job.ID)
	pipe.HIncrBy(ctx, JobStatsKey, statRecovered, 1)
	_, err = pipe.Exec(ctx)
	return err
}

func (q *Queue) save(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.Set(ctx, JobKeyPrefix+job.ID, data, JobTTL).Err()
}

// GetJob reads a job envelope; a missing job yields redis.Nil
func (q *Queue) GetJob(ctx context.Context, jobID string) (*Job, error) {
	data, err := q.client.Get(ctx, JobKeyPrefix+jobID).Bytes()
	if err != nil {
		return nil, err
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", jobID, err)
	}
	return &job, nil
}

// Stats reads list lengths and counters in one round trip
func (q *Queue) Stats(ctx context.Context) (*Stats, error) {
	pipe := q.client.Pipeline()
	pending := pipe.LLen(ctx, JobQueueKey)
	processing := pipe.LLen(ctx, JobProcessingKey)
	failed := pipe.LLen(ctx, JobFailedKey)
	counters := pipe.HGetAll(ctx, JobStatsKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	stats := &Stats{
		Pending:    pending.Val(),
		Processing: processing.Val(),
		Failed:     failed.Val(),
	}
	for field, raw := range counters.Val() {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		switch field {
		case statEnqueued:
			stats.Enqueued = n
		case statCompleted:
			stats.Completed = n
		case statFailed:
			stats.FailedJobs = n
		case statRecovered:
			stats.Recovered = n
		}
	}
	return stats, nil
}

// FailedJobIDs lists up to limit dead-lettered job ids, newest first
func (q *Queue) FailedJobIDs(ctx context.Context, limit int64) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	return q.client.LRange(ctx, JobFailedKey, 0, limit-1).Result()
}
