package services

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/justsurfingit/jobhunter/internal/backend"
	"github.com/justsurfingit/jobhunter/internal/models"
	"github.com/justsurfingit/jobhunter/internal/page"
)

// DefaultAlertTTL is how long an alert stays on the page.
const DefaultAlertTTL = 5 * time.Second

// Alerter shows transient status messages.
type Alerter interface {
	Show(text string, severity models.Severity) models.AlertMessage
}

// AlertService inserts banners into a document and removes each one after
// its own timer fires.
type AlertService struct {
	Doc *page.Document
	TTL time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewAlertService(doc *page.Document, ttl time.Duration) *AlertService {
	if ttl <= 0 {
		ttl = DefaultAlertTTL
	}
	return &AlertService{
		Doc:    doc,
		TTL:    ttl,
		timers: make(map[string]*time.Timer),
	}
}

// Show prepends a banner to the main container (or the body when there is
// none) and schedules its removal.
func (s *AlertService) Show(text string, severity models.Severity) models.AlertMessage {
	if severity == "" {
		severity = models.SeverityInfo
	}
	a := models.AlertMessage{
		ID:        uuid.NewString(),
		Text:      text,
		Severity:  severity,
		CreatedAt: time.Now(),
	}
	s.Doc.PrependAlert(s.Doc.AlertTarget(), a)
	s.schedule(a.ID)
	slog.Debug("alert shown", "id", a.ID, "severity", a.Severity, "text", a.Text)
	return a
}

// Dismiss removes an alert before its timer fires.
func (s *AlertService) Dismiss(id string) bool {
	s.mu.Lock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()
	return s.Doc.RemoveAlert(id)
}

// Active lists the alerts currently on the page.
func (s *AlertService) Active() []models.AlertMessage {
	return s.Doc.AllAlerts()
}

// Close stops all pending timers without touching the document.
func (s *AlertService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *AlertService) schedule(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers[id] = time.AfterFunc(s.TTL, func() { s.expire(id) })
}

func (s *AlertService) expire(id string) {
	s.mu.Lock()
	delete(s.timers, id)
	s.mu.Unlock()
	s.Doc.RemoveAlert(id)
}

// failureText builds the user-facing message for a failed backend call:
// the server detail for HTTP errors, the fallback when there is none, and
// the raw error appended for transport failures.
func failureText(err error, fallback string) string {
	if apiErr, ok := backend.IsAPIError(err); ok {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		return fallback
	}
	return fallback + ": " + err.Error()
}
