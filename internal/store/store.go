// Package store persists analysis runs in SQLite: one row per run, the
// region polygons, every numeric region property and every detected
// feature. The schema is managed by embedded migrations.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"spot-analyser/internal/features"
	"spot-analyser/internal/logger"
)

// Store is a results database.
type Store struct {
	db  *sql.DB
	log logger.Logger
}

// Run describes one stored analysis run.
type Run struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	ConfigJSON string    `json:"config"`
}

// Open opens or creates the database at path and migrates it to the latest
// schema.
func Open(path string, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Nop()
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open results database: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, log: log}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun stores a new run with its configuration document and returns
// its id. An empty id gets a fresh UUID.
func (s *Store) CreateRun(ctx context.Context, id string, config any) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	cfg, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("failed to marshal run config: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, config_json) VALUES (?, ?, ?)`,
		id, time.Now().UTC(), string(cfg))
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	s.log.Debug("store", "run created", map[string]interface{}{"run": id})
	return id, nil
}

// Runs lists the stored runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, created_at, config_json FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.ConfigJSON); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// SaveRegion writes a region, its numeric properties and the features of
// every channel in one transaction. Saving the same region twice for a run
// replaces the earlier rows.
func (s *Store) SaveRegion(ctx context.Context, runID string, region *features.Region) error {
	polygon, err := json.Marshal(region.Polygon)
	if err != nil {
		return fmt.Errorf("failed to marshal polygon: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM regions WHERE run_id = ? AND region_id = ?`, runID, region.ID); err != nil {
		return fmt.Errorf("failed to clear region %s: %w", region.ID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO regions (run_id, region_id, frame, polygon_json) VALUES (?, ?, ?, ?)`,
		runID, region.ID, region.Frame, string(polygon)); err != nil {
		return fmt.Errorf("failed to insert region %s: %w", region.ID, err)
	}

	propStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO region_properties (run_id, region_id, key, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer propStmt.Close()
	for k, v := range region.NumericSnapshot() {
		if _, err := propStmt.ExecContext(ctx, runID, region.ID, k, nullable(v)); err != nil {
			return fmt.Errorf("failed to insert property %s: %w", k, err)
		}
	}

	featStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO features (run_id, region_id, channel, feature_id, x, y, properties_json) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer featStmt.Close()
	for c := 0; c < region.Channels; c++ {
		feats, err := region.Features(c, features.SetSpots)
		if err != nil {
			return err
		}
		for _, f := range feats {
			props, err := json.Marshal(finiteProperties(f.Numeric))
			if err != nil {
				return fmt.Errorf("failed to marshal feature %d: %w", f.ID, err)
			}
			if _, err := featStmt.ExecContext(ctx, runID, region.ID, c, f.ID, f.Centroid.X, f.Centroid.Y, string(props)); err != nil {
				return fmt.Errorf("failed to insert feature %d: %w", f.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit region %s: %w", region.ID, err)
	}
	return nil
}

// RegionProperties returns the stored numeric properties of a region.
// Values stored as NULL come back as NaN.
func (s *Store) RegionProperties(ctx context.Context, runID, regionID string) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM region_properties WHERE run_id = ? AND region_id = ?`, runID, regionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var key string
		var v sql.NullFloat64
		if err := rows.Scan(&key, &v); err != nil {
			return nil, err
		}
		if v.Valid {
			out[key] = v.Float64
		} else {
			out[key] = math.NaN()
		}
	}
	return out, rows.Err()
}

// RegionIDs lists the regions stored for a run.
func (s *Store) RegionIDs(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT region_id FROM regions WHERE run_id = ? ORDER BY region_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query regions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FeatureCount returns the number of stored features of one region channel.
func (s *Store) FeatureCount(ctx context.Context, runID, regionID string, channel int) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM features WHERE run_id = ? AND region_id = ? AND channel = ?`,
		runID, regionID, channel).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count features: %w", err)
	}
	return n, nil
}

// DeleteRun removes a run and, through the foreign keys, everything stored
// under it.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID); err != nil {
		return fmt.Errorf("failed to delete run %s: %w", runID, err)
	}
	return nil
}

// nullable maps non-finite values to NULL, which SQLite would otherwise
// store inconsistently.
func nullable(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

// finiteProperties replaces non-finite values with null so that the map
// can be encoded as JSON.
func finiteProperties(m map[string]float64) map[string]*float64 {
	out := make(map[string]*float64, len(m))
	for k, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[k] = nil
			continue
		}
		v := v
		out[k] = &v
	}
	return out
}
