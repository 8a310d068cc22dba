// Package monitor holds the single shared monitoring value of the
// ingest service: atomic counters for every error kind and processing
// outcome, mirrored to OpenTelemetry instruments, plus the state backing
// the readiness and liveness probes.
package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Error kinds counted by the service, one per failure class of the
// processing pipeline and delivery path.
const (
	KindMalformedEvent   = "malformed_event"
	KindObjectNotFound   = "object_not_found"
	KindAccessDenied     = "access_denied"
	KindTransientRead    = "transient_read"
	KindDecodeError      = "decode_error"
	KindParseError       = "parse_error"
	KindValidationReject = "validation_reject"
	KindRecordTooLarge   = "record_too_large"
	KindDeliveryPerm     = "delivery_permanent"
	KindDeliveryRetry    = "delivery_retriable"
	KindDeliveryUnknown  = "delivery_unknown"
	KindThrottled        = "throttled"
)

// Monitor is safe for concurrent use; all counters are atomic.
type Monitor struct {
	logger *zap.Logger

	mu     sync.Mutex
	errors map[string]*atomic.Int64

	messagesProcessed atomic.Int64
	messagesDeleted   atomic.Int64
	messagesDeferred  atomic.Int64
	recordsEmitted    atomic.Int64
	recordsDelivered  atomic.Int64
	recordsDropped    atomic.Int64
	batchesDispatched atomic.Int64
	retriesScheduled  atomic.Int64
	pendingRecords    atomic.Int64

	lastReceiveNano  atomic.Int64
	lastDeliveryNano atomic.Int64
	streamActive     atomic.Bool
	streamCheckFails atomic.Int32

	errorCounter    metric.Int64Counter
	recordCounter   metric.Int64Counter
	deliveryCounter metric.Int64Counter
}

// New constructs the Monitor and registers its OTel instruments on the
// global meter provider.
func New(logger *zap.Logger) *Monitor {
	meter := otel.Meter("wifi-ingest")

	errorCounter, _ := meter.Int64Counter("ingest.errors",
		metric.WithDescription("Errors by kind"))
	recordCounter, _ := meter.Int64Counter("ingest.records.emitted",
		metric.WithDescription("Measurements emitted by the transformer"))
	deliveryCounter, _ := meter.Int64Counter("ingest.records.delivered",
		metric.WithDescription("Records acknowledged by the delivery stream"))

	m := &Monitor{
		logger:          logger,
		errors:          make(map[string]*atomic.Int64),
		errorCounter:    errorCounter,
		recordCounter:   recordCounter,
		deliveryCounter: deliveryCounter,
	}
	now := time.Now().UnixNano()
	m.lastReceiveNano.Store(now)
	m.lastDeliveryNano.Store(now)
	return m
}

// IncError counts one error of the given kind.
func (m *Monitor) IncError(kind string) {
	m.counterFor(kind).Add(1)
	if m.errorCounter != nil {
		m.errorCounter.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("kind", kind)))
	}
}

func (m *Monitor) counterFor(kind string) *atomic.Int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.errors[kind]
	if !ok {
		c = &atomic.Int64{}
		m.errors[kind] = c
	}
	return c
}

// ErrorCount returns the current count for one error kind.
func (m *Monitor) ErrorCount(kind string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.errors[kind]; ok {
		return c.Load()
	}
	return 0
}

func (m *Monitor) IncMessagesProcessed() { m.messagesProcessed.Add(1) }
func (m *Monitor) IncMessagesDeferred()  { m.messagesDeferred.Add(1) }

// AddMessagesDeleted counts n acknowledged messages at once.
func (m *Monitor) AddMessagesDeleted(n int) {
	if n > 0 {
		m.messagesDeleted.Add(int64(n))
	}
}

func (m *Monitor) IncBatchesDispatched() { m.batchesDispatched.Add(1) }
func (m *Monitor) IncRetriesScheduled()  { m.retriesScheduled.Add(1) }

// AddRecordsEmitted counts measurements produced by the transformer.
func (m *Monitor) AddRecordsEmitted(n int) {
	m.recordsEmitted.Add(int64(n))
	if m.recordCounter != nil {
		m.recordCounter.Add(context.Background(), int64(n))
	}
}

// AddRecordsDelivered counts records acknowledged downstream and
// refreshes the liveness clock.
func (m *Monitor) AddRecordsDelivered(n int) {
	m.recordsDelivered.Add(int64(n))
	m.lastDeliveryNano.Store(time.Now().UnixNano())
	if m.deliveryCounter != nil {
		m.deliveryCounter.Add(context.Background(), int64(n))
	}
}

// AddRecordsDropped counts records abandoned after classification or
// budget exhaustion.
func (m *Monitor) AddRecordsDropped(n int) { m.recordsDropped.Add(int64(n)) }

// AddPending tracks records accepted by the batcher but not yet
// resolved (delivered or dropped). Negative deltas resolve them.
func (m *Monitor) AddPending(n int) { m.pendingRecords.Add(int64(n)) }

// Pending returns the number of unresolved records.
func (m *Monitor) Pending() int64 { return m.pendingRecords.Load() }

// RecordReceiveTick marks a successful queue receive (empty or not);
// used both for liveness and as the queue-reachability signal.
func (m *Monitor) RecordReceiveTick() { m.lastReceiveNano.Store(time.Now().UnixNano()) }

// SetStreamStatus records one readiness-poll outcome. Failures
// accumulate; any success resets the failure streak.
func (m *Monitor) SetStreamStatus(active bool, checkErr error) {
	m.streamActive.Store(active)
	if checkErr != nil {
		m.streamCheckFails.Add(1)
		return
	}
	m.streamCheckFails.Store(0)
}

// Ready reports readiness: the queue was reachable within maxAge, the
// delivery stream is ACTIVE, and fewer than three consecutive stream
// checks have failed.
func (m *Monitor) Ready(maxAge time.Duration) bool {
	receiveFresh := time.Since(time.Unix(0, m.lastReceiveNano.Load())) <= maxAge
	return receiveFresh && m.streamActive.Load() && m.streamCheckFails.Load() < 3
}

// Alive reports liveness: the receive loop ticked within receiveMaxAge,
// and either delivery showed activity within deliveryMaxAge or there is
// nothing pending to deliver.
func (m *Monitor) Alive(receiveMaxAge, deliveryMaxAge time.Duration) bool {
	receiveFresh := time.Since(time.Unix(0, m.lastReceiveNano.Load())) <= receiveMaxAge
	deliveryFresh := time.Since(time.Unix(0, m.lastDeliveryNano.Load())) <= deliveryMaxAge
	return receiveFresh && (deliveryFresh || m.pendingRecords.Load() == 0)
}

// Snapshot is the structured detail body exposed by the health
// endpoints.
type Snapshot struct {
	MessagesProcessed int64            `json:"messages_processed"`
	MessagesDeleted   int64            `json:"messages_deleted"`
	MessagesDeferred  int64            `json:"messages_deferred"`
	RecordsEmitted    int64            `json:"records_emitted"`
	RecordsDelivered  int64            `json:"records_delivered"`
	RecordsDropped    int64            `json:"records_dropped"`
	BatchesDispatched int64            `json:"batches_dispatched"`
	RetriesScheduled  int64            `json:"retries_scheduled"`
	PendingRecords    int64            `json:"pending_records"`
	StreamActive      bool             `json:"stream_active"`
	StreamCheckFails  int32            `json:"stream_check_failures"`
	LastReceive       time.Time        `json:"last_receive"`
	LastDelivery      time.Time        `json:"last_delivery"`
	Errors            map[string]int64 `json:"errors"`
}

// Snap returns a point-in-time copy of all counters.
func (m *Monitor) Snap() Snapshot {
	m.mu.Lock()
	errs := make(map[string]int64, len(m.errors))
	for k, v := range m.errors {
		errs[k] = v.Load()
	}
	m.mu.Unlock()

	return Snapshot{
		MessagesProcessed: m.messagesProcessed.Load(),
		MessagesDeleted:   m.messagesDeleted.Load(),
		MessagesDeferred:  m.messagesDeferred.Load(),
		RecordsEmitted:    m.recordsEmitted.Load(),
		RecordsDelivered:  m.recordsDelivered.Load(),
		RecordsDropped:    m.recordsDropped.Load(),
		BatchesDispatched: m.batchesDispatched.Load(),
		RetriesScheduled:  m.retriesScheduled.Load(),
		PendingRecords:    m.pendingRecords.Load(),
		StreamActive:      m.streamActive.Load(),
		StreamCheckFails:  m.streamCheckFails.Load(),
		LastReceive:       time.Unix(0, m.lastReceiveNano.Load()),
		LastDelivery:      time.Unix(0, m.lastDeliveryNano.Load()),
		Errors:            errs,
	}
}
