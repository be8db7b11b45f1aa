package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

// DocumentEvent describes one step in the life of a processed document
type DocumentEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	RequestID      string                 `json:"request_id"`
	Source         string                 `json:"source"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorType      string                 `json:"error_type,omitempty"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of document event
type EventType string

const (
	// DocumentStarted when processing begins
	DocumentStarted EventType = "document_started"
	// DocumentCompleted when the pipeline reports success
	DocumentCompleted EventType = "document_completed"
	// DocumentFailed when the pipeline or a collaborator reports failure
	DocumentFailed EventType = "document_failed"
	// PhotoExtracted when a photo crop was found and stored
	PhotoExtracted EventType = "photo_extracted"
	// DocumentFetched when the source bytes were loaded
	DocumentFetched EventType = "document_fetched"
	// DocumentFetchFailed when the source could not be loaded
	DocumentFetchFailed EventType = "document_fetch_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event DocumentEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event DocumentEvent)
}

// LoggingObserver logs document events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles document events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event DocumentEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"request_id":      event.RequestID,
		"source":          event.Source,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}

	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
		fields["error_type"] = event.ErrorType
	}

	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case DocumentStarted:
		entry.Info("Document processing started")
	case DocumentCompleted:
		entry.Info("Document processing completed")
	case DocumentFailed:
		entry.Error("Document processing failed")
	case PhotoExtracted:
		entry.Info("Photo region extracted")
	case DocumentFetched:
		entry.Debug("Document fetched successfully")
	case DocumentFetchFailed:
		entry.Error("Document fetch failed")
	default:
		entry.Info("Document event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// maxLatencySamples bounds the window used for latency statistics
const maxLatencySamples = 1024

// Stats is a snapshot of the metrics observer
type Stats struct {
	TotalDocuments      int64   `json:"total_documents"`
	SuccessfulDocuments int64   `json:"successful_documents"`
	FailedDocuments     int64   `json:"failed_documents"`
	PhotosExtracted     int64   `json:"photos_extracted"`
	FetchFailures       int64   `json:"fetch_failures"`
	MeanLatencySec      float64 `json:"mean_latency_sec"`
	StdDevLatencySec    float64 `json:"stddev_latency_sec"`
	LatencySamples      int     `json:"latency_samples"`
}

// MetricsObserver collects counters and latency statistics from document events
type MetricsObserver struct {
	mu              sync.RWMutex
	total           int64
	successful      int64
	failed          int64
	photos          int64
	fetchFailures   int64
	latencies       []float64
	nextLatencySlot int
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		latencies: make([]float64, 0, maxLatencySamples),
	}
}

// OnEvent handles document events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event DocumentEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case DocumentStarted:
		o.total++
	case DocumentCompleted:
		o.successful++
		o.recordLatency(event.ProcessingTime)
	case DocumentFailed:
		o.failed++
		o.recordLatency(event.ProcessingTime)
	case PhotoExtracted:
		o.photos++
	case DocumentFetchFailed:
		o.fetchFailures++
	}
}

// recordLatency keeps the most recent samples in a ring buffer
func (o *MetricsObserver) recordLatency(d time.Duration) {
	if d <= 0 {
		return
	}
	if len(o.latencies) < maxLatencySamples {
		o.latencies = append(o.latencies, d.Seconds())
		return
	}
	o.latencies[o.nextLatencySlot] = d.Seconds()
	o.nextLatencySlot = (o.nextLatencySlot + 1) % maxLatencySamples
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// Stats returns current metrics
func (o *MetricsObserver) Stats() Stats {
	o.mu.RLock()
	defer o.mu.RUnlock()

	stats := Stats{
		TotalDocuments:      o.total,
		SuccessfulDocuments: o.successful,
		FailedDocuments:     o.failed,
		PhotosExtracted:     o.photos,
		FetchFailures:       o.fetchFailures,
		LatencySamples:      len(o.latencies),
	}
	switch len(o.latencies) {
	case 0:
	case 1:
		stats.MeanLatencySec = o.latencies[0]
	default:
		stats.MeanLatencySec, stats.StdDevLatencySec = stat.MeanStdDev(o.latencies, nil)
	}
	return stats
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() Subject {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event DocumentEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	// Notify observers concurrently
	for _, observer := range observers {
		go func(obs Observer) {
			defer func() {
				if r := recover(); r != nil {
					// Log panic but don't crash the application
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}
