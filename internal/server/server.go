// Package server exposes budget sessions over an HTTP JSON API with an SSE
// change stream and optional scheduled CSV exports.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/cadence/internal/budget"
	"github.com/theirongolddev/cadence/internal/model"
	"github.com/theirongolddev/cadence/internal/report"
	"github.com/theirongolddev/cadence/internal/store"
)

// Config controls the server runtime behavior.
type Config struct {
	Addr         string
	EventsBuffer int
	// Frequency is the display frequency of new sessions.
	Frequency model.Frequency
	// FrequencyOverride, when set, wins over the frequency saved in the store.
	FrequencyOverride model.Frequency
	// SeedDefaults seeds new sessions with the default budget unless the
	// request says otherwise.
	SeedDefaults bool
	// ExportSchedule is a cron spec; empty disables scheduled exports.
	ExportSchedule string
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	Addr            string    `json:"addr"`
	Sessions        int       `json:"sessions"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
	ExportSchedule  string    `json:"export_schedule,omitempty"`
	ExportCount     int64     `json:"export_count"`
	LastExportAt    time.Time `json:"last_export_at,omitempty"`
	LastExportPath  string    `json:"last_export_path,omitempty"`
	LastError       string    `json:"last_error,omitempty"`
	Persistent      bool      `json:"persistent"`
}

// Service provides the server runtime and HTTP API.
type Service struct {
	cfg   Config
	log   *logrus.Entry
	store *store.Store
	sink  report.Sink
	now   func() time.Time

	sessions  *registry
	startedAt time.Time

	mu             sync.RWMutex
	exportCount    int64
	lastExportAt   time.Time
	lastExportPath string
	lastError      string
}

// Option customises a Service.
type Option func(*Service)

// WithStore backs the default session with st and records exports in it.
func WithStore(st *store.Store) Option {
	return func(s *Service) { s.store = st }
}

// WithSink sets where exports are written. Defaults to the working directory.
func WithSink(sink report.Sink) Option {
	return func(s *Service) { s.sink = sink }
}

// WithLogger sets the base log entry.
func WithLogger(l *logrus.Entry) Option {
	return func(s *Service) { s.log = l }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New returns a new service. With a store, the default session is loaded
// from it and every change is written back.
func New(cfg Config, opts ...Option) (*Service, error) {
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}
	if cfg.Frequency == "" {
		cfg.Frequency = model.Monthly
	}
	if cfg.ExportSchedule != "" {
		if _, err := cron.ParseStandard(cfg.ExportSchedule); err != nil {
			return nil, fmt.Errorf("parsing export schedule %q: %w", cfg.ExportSchedule, err)
		}
	}

	s := &Service{
		cfg:      cfg,
		log:      logrus.NewEntry(logrus.StandardLogger()),
		sink:     report.FileSink{},
		now:      time.Now,
		sessions: newRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "server")
	s.startedAt = s.now()

	if s.store != nil {
		st, err := s.store.LoadState(store.LoadOptions{
			Frequency:    cfg.Frequency,
			SeedDefaults: cfg.SeedDefaults,
			Override:     cfg.FrequencyOverride,
		})
		if err != nil {
			return nil, err
		}
		s.store.Attach(st, func(err error) {
			s.setError(err)
			s.log.WithError(err).Error("Failed to persist default session")
		})
		s.sessions.add(newSession(DefaultSessionID, st, cfg.EventsBuffer, s.now()))
	}

	return s, nil
}

// Run starts the HTTP listener and the export scheduler until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.WithField("addr", s.cfg.Addr).Info("Listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if s.cfg.ExportSchedule != "" {
		g.Go(func() error {
			c := cron.New(cron.WithLocation(time.Local))
			if _, err := c.AddFunc(s.cfg.ExportSchedule, func() {
				if _, err := s.ExportAll(ctx); err != nil {
					s.log.WithError(err).Error("Scheduled export failed")
				}
			}); err != nil {
				return fmt.Errorf("scheduling exports: %w", err)
			}
			s.log.WithField("schedule", s.cfg.ExportSchedule).Info("Export scheduler started")
			c.Start()
			<-ctx.Done()
			<-c.Stop().Done()
			return nil
		})
	}

	return g.Wait()
}

// CreateSession registers a new isolated session and returns its id.
func (s *Service) CreateSession(seed bool, freq model.Frequency) (string, error) {
	if freq == "" {
		freq = s.cfg.Frequency
	}

	var st *budget.State
	if seed {
		st = budget.NewDefault()
		if err := st.SetFrequency(freq); err != nil {
			return "", err
		}
	} else {
		var err error
		if st, err = budget.New(nil, freq); err != nil {
			return "", err
		}
	}

	id := newSessionID()
	s.sessions.add(newSession(id, st, s.cfg.EventsBuffer, s.now()))
	s.log.WithFields(logrus.Fields{"session": id, "seeded": seed}).Info("Session created")
	return id, nil
}

// ExportAll writes one CSV per session through the sink and returns the
// paths written.
func (s *Service) ExportAll(ctx context.Context) ([]string, error) {
	var paths []string
	var errs []error
	for _, sess := range s.sessions.all() {
		path, err := s.exportSession(ctx, sess)
		if err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", sess.id, err))
			continue
		}
		paths = append(paths, path)
	}
	return paths, errors.Join(errs...)
}

func (s *Service) exportSession(ctx context.Context, sess *session) (string, error) {
	sess.mu.Lock()
	items := sess.state.Items()
	sess.mu.Unlock()

	r, err := report.Build(items)
	if err != nil {
		s.setError(err)
		return "", err
	}

	now := s.now()
	name := report.FileName(now)
	if sess.id != DefaultSessionID {
		name = sess.id[:8] + "-" + name
	}

	path, err := s.sink.Put(ctx, name, r)
	if err != nil {
		s.setError(err)
		return "", err
	}

	if s.store != nil {
		if err := s.store.RecordExport(path, len(items)); err != nil {
			s.log.WithError(err).Warn("Failed to record export")
		}
	}

	s.mu.Lock()
	s.exportCount++
	s.lastExportAt = now
	s.lastExportPath = path
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"session": sess.id, "path": path, "items": len(items)}).Info("Exported budget")
	return path, nil
}

func (s *Service) setError(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	st := Status{
		StartedAt:      s.startedAt,
		Addr:           s.cfg.Addr,
		ExportSchedule: s.cfg.ExportSchedule,
		Persistent:     s.store != nil,
	}

	sessions := s.sessions.all()
	st.Sessions = len(sessions)
	for _, sess := range sessions {
		sess.evMu.Lock()
		st.EventCount += len(sess.log.events)
		st.SubscriberCount += len(sess.log.subs)
		sess.evMu.Unlock()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	st.ExportCount = s.exportCount
	st.LastExportAt = s.lastExportAt
	st.LastExportPath = s.lastExportPath
	st.LastError = s.lastError
	return st
}
