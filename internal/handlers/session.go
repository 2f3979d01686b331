package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/justsurfingit/jobhunter/internal/page"
	"github.com/justsurfingit/jobhunter/internal/services"
)

const sessionCookie = "jh_session"

// BackendAPI is everything a session needs from the backend.
type BackendAPI interface {
	services.ResumeAPI
	services.JobAPI
}

// Session is one browser tab's document and the components bound to it.
type Session struct {
	ID        string
	Doc       *page.Document
	Alerts    *services.AlertService
	Validator *services.FormValidator
	Resumes   *services.ResumeService
	Jobs      *services.JobService

	lastSeen time.Time
}

// NewSession wires the components around a fresh standard document.
func NewSession(id string, api BackendAPI, alertTTL time.Duration, loc *time.Location) *Session {
	doc := page.NewStandard()
	alerts := services.NewAlertService(doc, alertTTL)
	return &Session{
		ID:        id,
		Doc:       doc,
		Alerts:    alerts,
		Validator: services.NewFormValidator(alerts),
		Resumes:   services.NewResumeService(api, doc, alerts, loc),
		Jobs:      services.NewJobService(api, doc, alerts),
		lastSeen:  time.Now(),
	}
}

type SessionStore struct {
	IdleTTL time.Duration

	newSession func(id string) *Session
	mu         sync.Mutex
	sessions   map[string]*Session
}

func NewSessionStore(newSession func(id string) *Session, idleTTL time.Duration) *SessionStore {
	return &SessionStore{
		IdleTTL:    idleTTL,
		newSession: newSession,
		sessions:   make(map[string]*Session),
	}
}

// Get returns the caller's session, creating one and setting the cookie
// when the request carries no known session id.
func (s *SessionStore) Get(c *gin.Context) *Session {
	id, err := c.Cookie(sessionCookie)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		if sess, ok := s.sessions[id]; ok {
			sess.lastSeen = time.Now()
			return sess
		}
	}

	sess := s.newSession(uuid.NewString())
	s.sessions[sess.ID] = sess
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, sess.ID, 0, "/", "", false, true)
	return sess
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than IdleTTL.
func (s *SessionStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.IdleTTL {
			sess.Alerts.Close()
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// StartSweeper evicts idle sessions in the background until ctx is done.
func (s *SessionStore) StartSweeper(ctx context.Context) {
	if s.IdleTTL <= 0 {
		slog.Info("session sweeper disabled")
		return
	}
	interval := s.IdleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := s.Sweep(now); n > 0 {
					slog.Info("evicted idle sessions", "count", n)
				}
			}
		}
	}()
}
