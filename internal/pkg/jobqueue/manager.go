package jobqueue

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PixelBlog/internal/pkg/env"
)

// StatsReportInterval is how often the manager logs queue depth
const StatsReportInterval = 5 * time.Minute

// Manager manages the global job queue and background tasks
type Manager struct {
	queue       *Queue
	statsTicker *time.Ticker
	stopCh      chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	running     bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		globalManager = &Manager{
			queue:  NewQueue(workerCount()),
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// workerCount reads JOB_QUEUE_WORKERS, falling back to DefaultWorkers
func workerCount() int {
	n := env.GetEnvInt("JOB_QUEUE_WORKERS", DefaultWorkers)
	if n <= 0 {
		return DefaultWorkers
	}
	return n
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Notifier returns the post-created notifier backed by the managed queue
func (m *Manager) Notifier() *PostCreatedNotifier {
	return NewPostCreatedNotifier(m.queue)
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	m.queue.Start()

	m.statsTicker = time.NewTicker(StatsReportInterval)
	m.wg.Add(1)
	go m.statsWorker(m.stopCh, m.statsTicker)

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")

	if m.statsTicker != nil {
		m.statsTicker.Stop()
	}

	// Signal workers to stop
	close(m.stopCh)
	m.stopCh = nil
	m.running = false

	// Wait for background workers to finish
	m.wg.Wait()

	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

// statsWorker periodically logs the queue stats
func (m *Manager) statsWorker(stopCh <-chan struct{}, ticker *time.Ticker) {
	defer m.wg.Done()
	for {
		select {
		case <-stopCh:
			log.Info("[JobQueue Manager] Stats worker stopping")
			return
		case <-ticker.C:
			m.reportStats(context.Background())
		}
	}
}

func (m *Manager) reportStats(ctx context.Context) {
	stats, err := m.queue.Stats(ctx)
	if err != nil {
		log.Errorf("[JobQueue Manager] Failed to read queue stats: %v", err)
		return
	}
	log.Infof("[JobQueue Manager] Queue: %d pending, %d processing, %d dead-lettered; %d completed, %d recovered",
		stats.Pending, stats.Processing, stats.Failed, stats.Completed, stats.Recovered)
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
