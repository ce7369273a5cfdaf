package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/config"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/pkg/logger"
	"github.com/hibiken/asynq"
)

const (
	TaskTypeWebhookDeliver = "webhook:deliver"
)

// WebhookDelivery is one outbound webhook line item: a single counted asset
// for a single store. Each delivery is an independent POST.
type WebhookDelivery struct {
	DispatchID string `json:"dispatch_id"`
	Email      string `json:"email"`
	StoreName  string `json:"store_name"`
	Kind       string `json:"kind"` // store, transit
	AssetName  string `json:"asset_name"`
	Quantity   int    `json:"quantity"`
	Note       string `json:"note,omitempty"`
}

// TaskQueue defines the interface for webhook delivery processing.
type TaskQueue interface {
	// Enqueue adds a delivery to the queue
	Enqueue(delivery *WebhookDelivery) error
	// IsAsync returns true if queue processes deliveries out of process
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

var (
	globalTaskQueue TaskQueue
	taskQueueOnce   sync.Once
)

// InitTaskQueue initializes the global task queue based on config.
// With Redis enabled deliveries go through asynq; otherwise the sync queue
// fans out in-process goroutines.
func InitTaskQueue(cfg *config.Config) TaskQueue {
	taskQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncQueue(&cfg.Redis)
			if err != nil {
				logger.Infof("[TaskQueue] Redis unavailable, falling back to sync mode: %v", err)
				globalTaskQueue = NewSyncQueue()
			} else {
				logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
				globalTaskQueue = queue
			}
		} else {
			logger.Infof("[TaskQueue] Sync queue initialized (Redis disabled)")
			globalTaskQueue = NewSyncQueue()
		}
	})
	return globalTaskQueue
}

// GetTaskQueue returns the global task queue instance.
func GetTaskQueue() TaskQueue {
	return globalTaskQueue
}

// AsyncQueue implements TaskQueue using asynq (Redis-based).
type AsyncQueue struct {
	client *asynq.Client
}

// NewAsyncQueue creates a new Redis-based async queue.
func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Verify the connection before committing to async mode
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

// Enqueue adds a webhook delivery to the async queue. Delivery is
// at-most-once: no retries are scheduled for failed POSTs.
func (q *AsyncQueue) Enqueue(delivery *WebhookDelivery) error {
	payload, err := json.Marshal(delivery)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeWebhookDeliver, payload)
	_, err = q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(0),
	)
	return err
}

func (q *AsyncQueue) IsAsync() bool { return true }

func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue implements TaskQueue without Redis: each delivery runs in its
// own goroutine with its own error boundary, never awaited by the caller.
type SyncQueue struct {
	mu        sync.RWMutex
	processor func(context.Context, *WebhookDelivery) error
}

// NewSyncQueue creates a new in-process queue.
func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

// SetProcessor sets the function invoked for each delivery.
func (q *SyncQueue) SetProcessor(processor func(context.Context, *WebhookDelivery) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.processor = processor
}

// Enqueue fires the delivery in the background and returns immediately.
// Failures are logged, never propagated to the submitter.
func (q *SyncQueue) Enqueue(delivery *WebhookDelivery) error {
	q.mu.RLock()
	processor := q.processor
	q.mu.RUnlock()

	if processor == nil {
		logger.Warnf("[TaskQueue] No processor set, dropping delivery %s", delivery.DispatchID)
		return nil
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().Interface("panic", r).Msg("webhook delivery panicked")
			}
		}()
		if err := processor(context.Background(), delivery); err != nil {
			logger.Warn().
				Err(err).
				Str("dispatch_id", delivery.DispatchID).
				Str("asset", delivery.AssetName).
				Msg("webhook delivery failed")
		}
	}()
	return nil
}

func (q *SyncQueue) IsAsync() bool { return false }

func (q *SyncQueue) Close() error { return nil }
