package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/statevault/internal/telemetry/logger"
)

var badgerKeyPrefix = []byte("version/")

// BadgerConfig contains Badger tuning parameters.
type BadgerConfig struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps everything in memory (tests).
	InMemory bool

	// SyncWrites fsyncs after each write. Default: true.
	SyncWrites bool

	// GCInterval is the interval between value log GC runs. Zero disables the loop.
	GCInterval time.Duration

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	CacheSize int64
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig(dir string) BadgerConfig {
	return BadgerConfig{
		Dir:         dir,
		SyncWrites:  true,
		GCInterval:  10 * time.Minute,
		GCThreshold: 0.5,
		CacheSize:   16 << 20,
	}
}

// BadgerStore keeps records in a Badger database under "version/<id>".
type BadgerStore struct {
	db     *badger.DB
	cfg    BadgerConfig
	codec  codec
	logger logger.Logger

	lastGCTime atomic.Int64 // Unix milliseconds
	gcRuns     atomic.Uint64

	closed    atomic.Bool
	closeOnce sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewBadgerStore opens a Badger-backed record store.
func NewBadgerStore(cfg BadgerConfig, opts ...Option) (*BadgerStore, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}
	o := buildOptions(opts)
	log := o.logger.With("component", "badger_store")

	bopts := badger.DefaultOptions(cfg.Dir).WithSyncWrites(cfg.SyncWrites)
	if cfg.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = &badgerLogger{logger: log}
	if cfg.CacheSize > 0 {
		bopts.BlockCacheSize = cfg.CacheSize
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	s := &BadgerStore{
		db:     db,
		cfg:    cfg,
		codec:  codec{cipher: o.cipher},
		logger: log,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go s.gcLoop()

	log.Info("badger store opened", "dir", cfg.Dir, "in_memory", cfg.InMemory)
	return s, nil
}

func badgerKey(id string) []byte {
	return append(append([]byte(nil), badgerKeyPrefix...), id...)
}

// Put stores rec. An existing record is never replaced.
func (s *BadgerStore) Put(ctx context.Context, rec *Record) error {
	if err := s.check(rec.VersionID); err != nil {
		return err
	}
	data, err := s.codec.encode(rec)
	if err != nil {
		return err
	}

	key := badgerKey(rec.VersionID)
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return fmt.Errorf("%w: %s", ErrRecordExists, rec.VersionID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
}

// Get retrieves the record for id.
func (s *BadgerStore) Get(ctx context.Context, id string) (*Record, error) {
	if err := s.check(id); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
			}
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.codec.decode(id, data)
}

// Delete removes the record for id.
func (s *BadgerStore) Delete(ctx context.Context, id string) error {
	if err := s.check(id); err != nil {
		return err
	}
	key := badgerKey(id)
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
			}
			return err
		}
		return txn.Delete(key)
	})
}

// List returns stored ids in key order.
func (s *BadgerStore) List(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = badgerKeyPrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			ids = append(ids, string(key[len(badgerKeyPrefix):]))
		}
		return nil
	})
	return ids, err
}

// GC runs value log garbage collection until nothing more can be rewritten.
func (s *BadgerStore) GC() error {
	if s.cfg.InMemory {
		return nil
	}
	threshold := s.cfg.GCThreshold
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.5
	}

	runs := 0
	for {
		err := s.db.RunValueLogGC(threshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			return fmt.Errorf("badger: gc: %w", err)
		}
		runs++
	}

	s.lastGCTime.Store(time.Now().UnixMilli())
	s.gcRuns.Add(uint64(runs))
	s.logger.Debug("gc completed", "rewrites", runs)
	return nil
}

// Close stops the GC loop and closes the database.
func (s *BadgerStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.stopCh)
		<-s.doneCh
		if cerr := s.db.Close(); cerr != nil {
			err = fmt.Errorf("badger: close db: %w", cerr)
		}
	})
	return err
}

// RegisterMetrics exposes Badger size and GC gauges on registry.
func (s *BadgerStore) RegisterMetrics(registry prometheus.Registerer) *BadgerStore {
	registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "statevault",
			Subsystem: "badger",
			Name:      "lsm_size_bytes",
			Help:      "Badger LSM tree size in bytes",
		}, func() float64 {
			lsm, _ := s.db.Size()
			return float64(lsm)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "statevault",
			Subsystem: "badger",
			Name:      "value_log_size_bytes",
			Help:      "Badger value log size in bytes",
		}, func() float64 {
			_, vlog := s.db.Size()
			return float64(vlog)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "statevault",
			Subsystem: "badger",
			Name:      "last_gc_timestamp_seconds",
			Help:      "Unix timestamp of the last Badger GC run",
		}, func() float64 {
			return float64(s.lastGCTime.Load()) / 1000.0
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "statevault",
			Subsystem: "badger",
			Name:      "gc_rewrites_total",
			Help:      "Value log files rewritten by Badger GC",
		}, func() float64 {
			return float64(s.gcRuns.Load())
		}),
	)
	return s
}

func (s *BadgerStore) check(id string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return checkID(id)
}

func (s *BadgerStore) gcLoop() {
	defer close(s.doneCh)
	if s.cfg.GCInterval <= 0 || s.cfg.InMemory {
		<-s.stopCh
		return
	}

	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.GC(); err != nil {
				s.logger.Error("auto gc failed", "error", err)
			}
		case <-s.stopCh:
			return
		}
	}
}

// badgerLogger adapts Logger to Badger's Logger interface.
type badgerLogger struct {
	logger logger.Logger
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
