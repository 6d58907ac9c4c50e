// Package metrics is the sync engine's SQLite-native metrics sink. The
// gateway and the view cache record counters and durations here; an ops
// process (or the inspect surface) queries them later.
//
// Persistence is async and non-blocking: datapoints buffer in memory and
// flush in batches, and a failing metrics store never blocks a request.
package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Metric names recorded by the engine.
const (
	MetricRequestDurationMs  = "gateway.request.duration_ms"
	MetricRequestError       = "gateway.request.error"
	MetricOfflineSubstituted = "gateway.offline.substitution"
	MetricCacheRefetch       = "viewcache.refetch"
)

// Datapoint is a single timeseries sample.
type Datapoint struct {
	Name      string
	Timestamp time.Time
	Value     float64
	Labels    map[string]string
	Unit      string // "milliseconds", "count"
}

// Manager buffers datapoints and flushes them to SQLite in batches.
type Manager struct {
	db            *sql.DB
	bufferSize    int
	flushInterval time.Duration
	buffer        []Datapoint
	mu            sync.Mutex
	stop          chan struct{}
	done          chan struct{}
}

// Init creates the metrics schema on db.
func Init(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS engine_metrics (
			metric_name TEXT NOT NULL,
			timestamp   INTEGER NOT NULL,
			value       REAL NOT NULL,
			labels      TEXT,
			unit        TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_engine_metrics_name_ts
			ON engine_metrics (metric_name, timestamp)`)
	if err != nil {
		return fmt.Errorf("metrics: init schema: %w", err)
	}
	return nil
}

// NewManager creates a manager that flushes in batches.
// Recommended defaults: bufferSize=100, flushInterval=5s.
func NewManager(db *sql.DB, bufferSize int, flushInterval time.Duration) *Manager {
	m := &Manager{
		db:            db,
		bufferSize:    bufferSize,
		flushInterval: flushInterval,
		buffer:        make([]Datapoint, 0, bufferSize),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	go m.flushLoop()
	return m
}

// Record queues a datapoint for async persistence. Non-blocking.
func (m *Manager) Record(d Datapoint) {
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buffer = append(m.buffer, d)
	if len(m.buffer) >= m.bufferSize {
		m.flushLocked()
	}
}

// RecordSimple is a convenience helper for datapoints without labels.
func (m *Manager) RecordSimple(name string, value float64, unit string) {
	m.Record(Datapoint{Name: name, Value: value, Unit: unit})
}

// Query retrieves datapoints for one metric in a time range, newest first.
// Nil time pointers mean unbounded; limit<=0 means no limit.
func (m *Manager) Query(name string, since, until *time.Time, limit int) ([]Datapoint, error) {
	q := "SELECT metric_name, timestamp, value, labels, unit FROM engine_metrics WHERE metric_name = ?"
	args := []any{name}
	if since != nil {
		q += " AND timestamp >= ?"
		args = append(args, since.Unix())
	}
	if until != nil {
		q += " AND timestamp <= ?"
		args = append(args, until.Unix())
	}
	q += " ORDER BY timestamp DESC"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := m.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("metrics: query: %w", err)
	}
	defer rows.Close()

	var out []Datapoint
	for rows.Next() {
		var d Datapoint
		var ts int64
		var labelsJSON sql.NullString
		if err := rows.Scan(&d.Name, &ts, &d.Value, &labelsJSON, &d.Unit); err != nil {
			return nil, fmt.Errorf("metrics: scan: %w", err)
		}
		d.Timestamp = time.Unix(ts, 0)
		if labelsJSON.Valid {
			var labels map[string]string
			if json.Unmarshal([]byte(labelsJSON.String), &labels) == nil {
				d.Labels = labels
			}
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Cleanup deletes datapoints older than retentionDays and returns the count
// removed.
func (m *Manager) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	threshold := time.Now().AddDate(0, 0, -retentionDays).Unix()
	res, err := m.db.ExecContext(ctx,
		"DELETE FROM engine_metrics WHERE timestamp < ?", threshold)
	if err != nil {
		return 0, fmt.Errorf("metrics: cleanup: %w", err)
	}
	return res.RowsAffected()
}

// Close flushes remaining datapoints and stops the background goroutine.
func (m *Manager) Close() error {
	close(m.stop)
	<-m.done
	return nil
}

func (m *Manager) flushLoop() {
	defer close(m.done)
	ticker := time.NewTicker(m.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			m.mu.Lock()
			m.flushLocked()
			m.mu.Unlock()
			return
		case <-ticker.C:
			m.mu.Lock()
			m.flushLocked()
			m.mu.Unlock()
		}
	}
}

func (m *Manager) flushLocked() {
	if len(m.buffer) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Error("metrics: begin tx", "error", err)
		return
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO engine_metrics (metric_name, timestamp, value, labels, unit) VALUES (?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		slog.Error("metrics: prepare", "error", err)
		return
	}
	defer stmt.Close()

	for _, d := range m.buffer {
		var labelsJSON sql.NullString
		if len(d.Labels) > 0 {
			if b, err := json.Marshal(d.Labels); err == nil {
				labelsJSON = sql.NullString{String: string(b), Valid: true}
			}
		}
		if _, err := stmt.ExecContext(ctx, d.Name, d.Timestamp.Unix(), d.Value, labelsJSON, d.Unit); err != nil {
			slog.Error("metrics: insert", "error", err, "metric", d.Name)
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("metrics: commit", "error", err)
	}
	m.buffer = m.buffer[:0]
}
