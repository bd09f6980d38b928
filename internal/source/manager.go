//-------------------------------------------------------------------------
//
// pgEdge Rerank Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package source manages the PostgreSQL tables candidate documents can be
// fetched from.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pgEdge/pgedge-rerank-server/internal/config"
	"github.com/pgEdge/pgedge-rerank-server/internal/database"
	"github.com/pgEdge/pgedge-rerank-server/internal/rerank"
)

// ErrSourceNotFound is returned when a requested source does not exist.
var ErrSourceNotFound = errors.New("source not found")

// DefaultPingTimeout bounds a health check of a single source.
const DefaultPingTimeout = 5 * time.Second

// Store is the database access a source needs. *database.Pool implements
// it.
type Store interface {
	FetchDocumentsByIDs(ctx context.Context, src config.Source, ids []string, filter *config.Filter) ([]database.Record, error)
	Ping(ctx context.Context) error
	Close()
}

// ConnectFunc opens the store for a source's database.
type ConnectFunc func(ctx context.Context, cfg config.DatabaseConfig) (Store, error)

// Connect opens a pgx connection pool.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	pool, err := database.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// Info describes a configured source.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Table       string `json:"table"`
}

// Source is a configured table with an open store.
type Source struct {
	config config.Source
	store  Store
	logger *slog.Logger
}

// Name returns the source name.
func (s *Source) Name() string {
	return s.config.Name
}

// Description returns the source description.
func (s *Source) Description() string {
	return s.config.Description
}

// Fetch loads the documents with the given IDs in the order requested.
// IDs without a matching row are skipped.
func (s *Source) Fetch(ctx context.Context, ids []string, filter *config.Filter) ([]rerank.Document, error) {
	records, err := s.store.FetchDocumentsByIDs(ctx, s.config, ids, filter)
	if err != nil {
		return nil, err
	}

	docs := make([]rerank.Document, len(records))
	for i, r := range records {
		docs[i] = rerank.Document{
			ID:       r.ID,
			Content:  r.Content,
			Metadata: map[string]any{"source": s.config.Name},
		}
	}

	if missing := len(ids) - len(docs); missing > 0 {
		s.logger.Debug("some requested documents were not found",
			"requested", len(ids),
			"found", len(docs),
		)
	}

	return docs, nil
}

// Ping checks the source's database.
func (s *Source) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Close releases the source's store.
func (s *Source) Close() {
	if s.store != nil {
		s.store.Close()
	}
}

// ManagerConfig contains configuration for creating a Manager.
type ManagerConfig struct {
	Sources []config.Source
	Logger  *slog.Logger

	// Connect defaults to Connect.
	Connect ConnectFunc
}

// Manager owns the configured sources.
type Manager struct {
	mu      sync.RWMutex
	sources map[string]*Source
	logger  *slog.Logger
}

// NewManager connects every configured source. If any connection fails
// the ones already opened are closed.
func NewManager(ctx context.Context, cfg ManagerConfig) (*Manager, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	connect := cfg.Connect
	if connect == nil {
		connect = Connect
	}

	m := &Manager{
		sources: make(map[string]*Source, len(cfg.Sources)),
		logger:  logger,
	}

	for _, sCfg := range cfg.Sources {
		store, err := connect(ctx, sCfg.Database)
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("failed to connect source %s: %w", sCfg.Name, err)
		}

		m.sources[sCfg.Name] = &Source{
			config: sCfg,
			store:  store,
			logger: logger.With("source", sCfg.Name),
		}
		logger.Info("source connected",
			"name", sCfg.Name,
			"table", sCfg.Table,
			"host", sCfg.Database.Host,
		)
	}

	return m, nil
}

// List returns information about all sources, sorted by name.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]Info, 0, len(m.sources))
	for _, s := range m.sources {
		infos = append(infos, Info{
			Name:        s.config.Name,
			Description: s.config.Description,
			Table:       s.config.Table,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	return infos
}

// Get retrieves a source by name.
func (m *Manager) Get(name string) (*Source, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sources[name]
	if !ok {
		return nil, ErrSourceNotFound
	}
	return s, nil
}

// Fetch loads documents by ID from the named source.
func (m *Manager) Fetch(ctx context.Context, name string, ids []string, filter *config.Filter) ([]rerank.Document, error) {
	s, err := m.Get(name)
	if err != nil {
		return nil, err
	}
	return s.Fetch(ctx, ids, filter)
}

// Len returns the number of sources.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sources)
}

// Ping checks every source concurrently and returns the error of each,
// keyed by name. A nil entry means healthy.
func (m *Manager) Ping(ctx context.Context) map[string]error {
	m.mu.RLock()
	sources := make([]*Source, 0, len(m.sources))
	for _, s := range m.sources {
		sources = append(sources, s)
	}
	m.mu.RUnlock()

	var (
		mu      sync.Mutex
		results = make(map[string]error, len(sources))
		g       errgroup.Group
	)
	for _, s := range sources {
		g.Go(func() error {
			pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
			defer cancel()

			err := s.Ping(pingCtx)
			if err != nil {
				m.logger.Warn("source ping failed", "source", s.Name(), "error", err)
			}

			mu.Lock()
			results[s.Name()] = err
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Close shuts down the manager and releases resources.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.sources {
		s.Close()
	}
	m.sources = nil

	return nil
}
