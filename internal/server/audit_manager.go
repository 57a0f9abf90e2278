package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/assolink/cantine/internal/repository"
)

const auditTopic = "audit_logs"

// OutboxWriter persists audit events for the Kafka publisher to pick up.
type OutboxWriter interface {
	Create(ctx context.Context, task *repository.OutboxTask) error
}

// AuditManager batches audit events off the request path: handlers enqueue,
// an aggregator groups by size or timeout, workers write outbox rows.
type AuditManager struct {
	workerCount int
	batchSize   int
	timeout     time.Duration

	outbox OutboxWriter
	logger *zap.Logger

	inputChan  chan repository.AuditEvent
	batchChan  chan []repository.AuditEvent
	shutdownCh chan struct{}
	once       sync.Once
	wg         sync.WaitGroup
}

func NewAuditManager(outbox OutboxWriter, logger *zap.Logger, workerCount, batchSize int, timeout time.Duration) *AuditManager {
	return &AuditManager{
		workerCount: workerCount,
		batchSize:   batchSize,
		timeout:     timeout,
		outbox:      outbox,
		logger:      logger,
		inputChan:   make(chan repository.AuditEvent, workerCount*batchSize*2),
		batchChan:   make(chan []repository.AuditEvent, workerCount*2),
		shutdownCh:  make(chan struct{}),
	}
}

func (m *AuditManager) Start(ctx context.Context) {
	m.wg.Add(1)
	go m.runAggregator(ctx)

	for i := 0; i < m.workerCount; i++ {
		m.wg.Add(1)
		go m.runWorker(ctx, i)
	}
}

func (m *AuditManager) Shutdown(ctx context.Context) {
	m.once.Do(func() {
		close(m.shutdownCh)

		done := make(chan struct{})
		go func() {
			m.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			m.logger.Info("audit manager stopped")
		case <-ctx.Done():
			m.logger.Warn("audit manager shutdown interrupted")
		}
	})
}

func (m *AuditManager) Record(ctx context.Context, event repository.AuditEvent) {
	select {
	case m.inputChan <- event:
	case <-ctx.Done():
		m.logDirect(event)
	}
}

func (m *AuditManager) runAggregator(ctx context.Context) {
	defer m.wg.Done()

	var (
		batch    []repository.AuditEvent
		timer    *time.Timer
		timeoutC <-chan time.Time
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
		if len(batch) > 0 {
			m.dispatchBatch(batch)
		}
		close(m.batchChan)
	}()

	for {
		select {
		case event, ok := <-m.inputChan:
			if !ok {
				return
			}

			batch = append(batch, event)
			if len(batch) >= m.batchSize {
				m.dispatchBatch(batch)
				batch = nil
				timeoutC = nil
			} else if len(batch) == 1 {
				timer = time.NewTimer(m.timeout)
				timeoutC = timer.C
			}

		case <-timeoutC:
			m.dispatchBatch(batch)
			batch = nil
			timeoutC = nil

		case <-ctx.Done():
			return

		case <-m.shutdownCh:
			return
		}
	}
}

func (m *AuditManager) dispatchBatch(batch []repository.AuditEvent) {
	batchCopy := make([]repository.AuditEvent, len(batch))
	copy(batchCopy, batch)

	select {
	case m.batchChan <- batchCopy:
	default:
		m.persistBatch(batchCopy)
	}
}

func (m *AuditManager) runWorker(ctx context.Context, id int) {
	defer m.wg.Done()

	for {
		select {
		case batch, ok := <-m.batchChan:
			if !ok {
				return
			}
			m.persistBatch(batch)
		case <-ctx.Done():
			// drain what is already queued, then exit
			for {
				select {
				case batch, ok := <-m.batchChan:
					if !ok {
						return
					}
					m.persistBatch(batch)
				default:
					return
				}
			}
		}
	}
}

func (m *AuditManager) persistBatch(batch []repository.AuditEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, event := range batch {
		payload, err := json.Marshal(event)
		if err != nil {
			m.logger.Error("marshal audit event", zap.Error(err))
			continue
		}
		task := &repository.OutboxTask{
			Topic:   auditTopic,
			Payload: payload,
		}
		if err := m.outbox.Create(ctx, task); err != nil {
			m.logger.Error("persist audit event", zap.Error(err))
			m.logDirect(event)
		}
	}
}

// logDirect is the fallback when the outbox is unreachable: the event still
// lands in the process log.
func (m *AuditManager) logDirect(event repository.AuditEvent) {
	m.logger.Info("audit (direct)",
		zap.String("handler", event.Handler),
		zap.String("method", event.Method),
		zap.String("path", event.Path),
		zap.Int("status_code", event.StatusCode),
		zap.String("tenant_id", event.TenantID),
		zap.String("order_id", event.OrderID),
	)
}
