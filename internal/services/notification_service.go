package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ArowuTest/topup-callback/internal/metrics"
	"github.com/ArowuTest/topup-callback/internal/models"
	"github.com/ArowuTest/topup-callback/internal/repositories"
	"github.com/ArowuTest/topup-callback/pkg/notifygateway"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Compile-time check to ensure NotificationDispatcher implements Notifier
var _ Notifier = (*NotificationDispatcher)(nil)

// Notifier accepts status-change notifications without blocking the caller.
// Notify reports whether the notification was queued.
type Notifier interface {
	Notify(n models.Notification) bool
}

// NopNotifier discards notifications
type NopNotifier struct{}

func (NopNotifier) Notify(models.Notification) bool { return false }

// DispatcherConfig controls the notification worker pool.
type DispatcherConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Workers:   4,
		QueueSize: 256,
		Timeout:   5 * time.Second,
	}
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	defaults := DefaultDispatcherConfig()
	if c.Workers <= 0 {
		c.Workers = defaults.Workers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = defaults.QueueSize
	}
	if c.Timeout <= 0 {
		c.Timeout = defaults.Timeout
	}
	return c
}

// NotificationDispatcher delivers notifications through a gateway from a bounded queue
// served by a fixed set of workers. Each notification gets a single attempt.
type NotificationDispatcher struct {
	cfg     DispatcherConfig
	gateway notifygateway.Gateway
	repo    repositories.NotificationRepository
	metrics *metrics.CallbackMetrics
	log     *zap.Logger

	queue chan models.Notification
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	// baseCtx is cancelled when Close gives up waiting; in-flight sends are aborted.
	baseCtx   context.Context
	abandon   context.CancelFunc
	closeOnce sync.Once
}

// NewNotificationDispatcher starts the worker pool. repo may be nil to skip the dispatch log.
func NewNotificationDispatcher(
	cfg DispatcherConfig,
	gateway notifygateway.Gateway,
	repo repositories.NotificationRepository,
	m *metrics.CallbackMetrics,
	log *zap.Logger,
) *NotificationDispatcher {
	cfg = cfg.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	baseCtx, abandon := context.WithCancel(context.Background())
	d := &NotificationDispatcher{
		cfg:     cfg,
		gateway: gateway,
		repo:    repo,
		metrics: m,
		log:     log.Named("notification.dispatcher"),
		queue:   make(chan models.Notification, cfg.QueueSize),
		baseCtx: baseCtx,
		abandon: abandon,
	}
	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

// Notify queues n. A full or closed queue drops the notification.
func (d *NotificationDispatcher) Notify(n models.Notification) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(n, "dispatcher closed")
		return false
	}
	select {
	case d.queue <- n:
		return true
	default:
		d.drop(n, "queue full")
		return false
	}
}

// Close stops accepting notifications and waits for queued ones until ctx is done.
// Whatever is still queued or in flight at that point is abandoned.
func (d *NotificationDispatcher) Close(ctx context.Context) error {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.abandon()
		return nil
	case <-ctx.Done():
		d.abandon()
		d.log.Warn("notification drain interrupted", zap.Int("abandoned", len(d.queue)))
		return ctx.Err()
	}
}

func (d *NotificationDispatcher) work() {
	defer d.wg.Done()
	for n := range d.queue {
		if d.baseCtx.Err() != nil {
			d.drop(n, "abandoned on shutdown")
			continue
		}
		d.deliver(n)
	}
}

func (d *NotificationDispatcher) deliver(n models.Notification) {
	ctx, cancel := context.WithTimeout(d.baseCtx, d.cfg.Timeout)
	defer cancel()

	text := RenderNotification(n)
	record := &models.NotificationRecord{
		ID:        uuid.NewString(),
		RequestID: n.RequestID,
		OwnerRef:  n.OwnerRef,
		Status:    n.Status,
		Content:   text,
		Gateway:   d.gateway.Name(),
		State:     models.NotificationPending,
	}
	logged := d.record(ctx, record)

	msgID, err := d.gateway.Send(ctx, n, text)
	if err != nil {
		nerr := &NotificationError{RequestID: n.RequestID, Gateway: d.gateway.Name(), Err: err}
		d.log.Warn("notification failed", zap.String("request_id", n.RequestID), zap.Error(nerr))
		d.metrics.IncNotification(d.gateway.Name(), "failed")
		if logged {
			d.updateState(record.ID, models.NotificationFailed, "", err.Error())
		}
		return
	}

	d.metrics.IncNotification(d.gateway.Name(), "sent")
	d.log.Debug("notification sent",
		zap.String("request_id", n.RequestID),
		zap.String("message_id", msgID),
	)
	if logged {
		d.updateState(record.ID, models.NotificationSent, msgID, "")
	}
}

func (d *NotificationDispatcher) record(ctx context.Context, record *models.NotificationRecord) bool {
	if d.repo == nil {
		return false
	}
	if err := d.repo.Create(ctx, record); err != nil {
		d.log.Warn("failed to record notification", zap.String("request_id", record.RequestID), zap.Error(err))
		return false
	}
	return true
}

// updateState uses its own short context so a send that hit its deadline still gets logged.
func (d *NotificationDispatcher) updateState(id, state, messageID, errMsg string) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.Timeout)
	defer cancel()
	if err := d.repo.UpdateState(ctx, id, state, messageID, errMsg); err != nil {
		d.log.Warn("failed to update notification state", zap.String("id", id), zap.Error(err))
	}
}

func (d *NotificationDispatcher) drop(n models.Notification, reason string) {
	d.metrics.IncDroppedNotification()
	d.log.Warn("notification dropped",
		zap.String("request_id", n.RequestID),
		zap.String("reason", reason),
	)
}

// RenderNotification formats the text sent to the request owner.
func RenderNotification(n models.Notification) string {
	text := fmt.Sprintf("Top-up %s (%s, %d): %s. %s", n.RequestID, n.Telco, n.ExpectedAmount, n.DisplayLabel, n.DisplayMessage)
	if n.Status == models.StatusSuccess {
		text += fmt.Sprintf(" Received amount: %d.", n.ReceivedAmount)
	}
	return text
}
