package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"authgate/internal/auth/device"
	"authgate/internal/platform/metrics"
	"authgate/internal/platform/middleware"
	"authgate/pkg/platform/privacy"
)

// Recorder accepts events from request handlers and hands them to the worker
// over a buffered channel. Record never blocks: when the buffer is full the
// event is dropped and counted, because an audit backlog must not slow down
// or fail sign-ins. A nil *Recorder discards everything, so collaborators can
// record unconditionally.
type Recorder struct {
	inbox   chan Event
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewRecorder builds a Recorder with the given buffer size.
func NewRecorder(bufferSize int, logger *slog.Logger, m *metrics.Metrics) *Recorder {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	return &Recorder{
		inbox:   make(chan Event, bufferSize),
		logger:  logger,
		metrics: m,
	}
}

// Inbox exposes the event channel for the worker to drain.
func (r *Recorder) Inbox() <-chan Event { return r.inbox }

// Record enriches the event with request context (request ID, anonymized IP,
// device display name) and enqueues it. Email is masked here so raw addresses
// never leave the request scope.
func (r *Recorder) Record(ctx context.Context, e Event) {
	if r == nil {
		return
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.RequestID == "" {
		e.RequestID = middleware.GetRequestID(ctx)
	}
	if e.IP == "" {
		if ip := middleware.GetClientIP(ctx); ip != "" {
			e.IP = privacy.AnonymizeIP(ip)
		}
	}
	if e.Device == "" {
		if ua := middleware.GetUserAgent(ctx); ua != "" {
			e.Device = device.ParseUserAgent(ua)
		}
	}
	if e.Email != "" {
		e.Email = privacy.MaskEmail(e.Email)
	}

	select {
	case r.inbox <- e:
	default:
		r.metrics.ObserveAuditDrop()
		r.logger.WarnContext(ctx, "audit event dropped, buffer full",
			"action", e.Action,
			"request_id", e.RequestID,
		)
	}
}
