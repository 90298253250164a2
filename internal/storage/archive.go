// Package storage provides the Badger-backed attack-event archive.
//
// Events are stored as JSON values keyed by their ULID, so iteration order
// is chronological for free. Old events age out via Badger's TTL support;
// a background loop runs value-log GC and refreshes size metrics.
package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/784356225/redistrap/internal/telemetry/metric"
)

// ErrClosed is returned for operations on a closed archive.
var ErrClosed = errors.New("storage: archive closed")

// ArchiveConfig configures the event archive.
type ArchiveConfig struct {
	// Dir is the Badger data directory.
	Dir string
	// Retention is how long events are kept. 0 keeps them forever.
	Retention time.Duration
	// GCInterval is how often value-log GC runs (default 10m).
	GCInterval time.Duration
	// GCThreshold is the rewrite ratio passed to Badger GC (default 0.5).
	GCThreshold float64
}

// Archive is an append-mostly store of telemetry events.
type Archive struct {
	db      *badger.DB
	cfg     ArchiveConfig
	logger  *slog.Logger
	metrics *metric.Metrics

	closed atomic.Bool
	stopCh chan struct{}
	doneCh chan struct{}
}

// Open opens (or creates) the archive at cfg.Dir.
func Open(cfg ArchiveConfig, m *metric.Metrics, logger *slog.Logger) (*Archive, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("storage: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = 10 * time.Minute
	}
	if cfg.GCThreshold <= 0 {
		cfg.GCThreshold = 0.5
	}

	opts := badger.DefaultOptions(cfg.Dir)
	opts.Logger = &badgerLogger{logger: logger}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open badger: %w", err)
	}

	a := &Archive{
		db:      db,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	go a.gcLoop()

	logger.Info("event archive opened",
		"dir", cfg.Dir,
		"retention", cfg.Retention.String(),
		"gc_interval", cfg.GCInterval.String())

	return a, nil
}

// Append stores one event under key. Keys are expected to be ULIDs so the
// archive stays time-ordered.
func (a *Archive) Append(key string, value []byte) error {
	if a.closed.Load() {
		return ErrClosed
	}
	err := a.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value)
		if a.cfg.Retention > 0 {
			entry = entry.WithTTL(a.cfg.Retention)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		if a.metrics != nil {
			a.metrics.ArchiveErrors.Inc()
		}
		return fmt.Errorf("storage: append: %w", err)
	}
	if a.metrics != nil {
		a.metrics.EventsArchived.Inc()
	}
	return nil
}

// Recent returns up to n most recent event records, newest first.
func (a *Archive) Recent(n int) ([][]byte, error) {
	if a.closed.Load() {
		return nil, ErrClosed
	}
	if n <= 0 {
		return nil, nil
	}

	var out [][]byte
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid() && len(out) < n; it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			out = append(out, value)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: recent: %w", err)
	}
	return out, nil
}

// Size returns the on-disk size in bytes (LSM tree plus value log).
func (a *Archive) Size() int64 {
	lsm, vlog := a.db.Size()
	return lsm + vlog
}

// Close stops the GC loop and closes the store. Further Append and
// Recent calls return ErrClosed; Close itself is idempotent.
func (a *Archive) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(a.stopCh)
	<-a.doneCh

	if err := a.db.Close(); err != nil {
		return fmt.Errorf("storage: close: %w", err)
	}
	a.logger.Info("event archive closed")
	return nil
}

// gcLoop periodically reclaims value-log space and refreshes the size
// gauge. Badger returns ErrNoRewrite when there is nothing to collect.
func (a *Archive) gcLoop() {
	defer close(a.doneCh)

	ticker := time.NewTicker(a.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for {
				err := a.db.RunValueLogGC(a.cfg.GCThreshold)
				if err != nil {
					if !errors.Is(err, badger.ErrNoRewrite) {
						a.logger.Warn("archive gc error", "error", err)
					}
					break
				}
			}
			if a.metrics != nil {
				a.metrics.ArchiveSizeBytes.Set(float64(a.Size()))
			}
		case <-a.stopCh:
			return
		}
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
