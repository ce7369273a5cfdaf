package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/config"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/pkg/logger"
	"github.com/hibiken/asynq"
)

// Worker processes webhook deliveries from the Redis queue.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor func(context.Context, *WebhookDelivery) error
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

// NewWorker creates a new worker instance. Returns nil when Redis is
// disabled.
func NewWorker(cfg *config.RedisConfig) *Worker {
	if !cfg.Enabled {
		return nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Warnf("[Worker] Error processing task %s: %v", task.Type(), err)
			}),
		},
	)

	return &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
	}
}

// SetProcessor sets the function invoked for each delivery.
func (w *Worker) SetProcessor(processor func(context.Context, *WebhookDelivery) error) {
	w.processor = processor
}

// Start begins processing deliveries.
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypeWebhookDeliver, w.handleDelivery)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Infof("[Worker] Starting webhook delivery worker...")
		if err := w.server.Run(w.mux); err != nil {
			logger.Errorf("[Worker] Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	w.server.Shutdown()
	w.wg.Wait()
	w.running = false
	logger.Infof("[Worker] Stopped")
}

func (w *Worker) handleDelivery(ctx context.Context, task *asynq.Task) error {
	var delivery WebhookDelivery
	if err := json.Unmarshal(task.Payload(), &delivery); err != nil {
		return err
	}

	if w.processor == nil {
		logger.Warnf("[Worker] No processor set, dropping delivery %s", delivery.DispatchID)
		return nil
	}

	return w.processor(ctx, &delivery)
}
