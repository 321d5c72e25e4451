package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"

	_ "github.com/marcboeker/go-duckdb"
	"golang.org/x/sync/singleflight"

	"github.com/manthysbr/samarth/internal/core/domain"
	"github.com/manthysbr/samarth/internal/core/ports"
)

// CropStore serves the crop production CSV through an in-memory DuckDB
// database. The CSV is loaded on first use and shared afterwards.
type CropStore struct {
	logger  *slog.Logger
	csvPath string

	snapshot atomic.Pointer[Snapshot]
	loads    singleflight.Group
}

// Ensure CropStore implements CropRepository
var _ ports.CropRepository = (*CropStore)(nil)

// NewCropStore creates a store for the CSV at csvPath. Nothing is read yet.
func NewCropStore(logger *slog.Logger, csvPath string) *CropStore {
	return &CropStore{logger: logger, csvPath: csvPath}
}

// Path returns the CSV location
func (s *CropStore) Path() string {
	return s.csvPath
}

// Snapshot returns the loaded dataset, loading it if needed. Concurrent
// first calls share one load. A failed load is not remembered.
func (s *CropStore) Snapshot(ctx context.Context) (*Snapshot, error) {
	if snap := s.snapshot.Load(); snap != nil {
		return snap, nil
	}

	v, err, _ := s.loads.Do("load", func() (any, error) {
		if snap := s.snapshot.Load(); snap != nil {
			return snap, nil
		}
		snap, err := loadSnapshot(context.WithoutCancel(ctx), s.csvPath)
		if err != nil {
			s.logger.Error("failed to load crop dataset", "path", s.csvPath, "error", err)
			return nil, err
		}
		s.logger.Info("crop dataset loaded", "path", s.csvPath, "rows", snap.Rows(), "districts", snap.HasDistricts())
		s.snapshot.Store(snap)
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Close releases the database behind a loaded snapshot
func (s *CropStore) Close() error {
	if snap := s.snapshot.Swap(nil); snap != nil {
		return snap.db.Close()
	}
	return nil
}

func (s *CropStore) CountRows(ctx context.Context, state string, year int) (int, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return snap.CountRows(ctx, state, year)
}

func (s *CropStore) CropTotal(ctx context.Context, state string, year int, crop string) (float64, int, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return 0, 0, err
	}
	return snap.CropTotal(ctx, state, year, crop)
}

func (s *CropStore) TopCrops(ctx context.Context, state string, year int, limit int) ([]domain.CropTotal, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.TopCrops(ctx, state, year, limit)
}

func (s *CropStore) HasDistricts(ctx context.Context) (bool, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return false, err
	}
	return snap.HasDistricts(), nil
}

func (s *CropStore) DistrictTotals(ctx context.Context, state, crop string, year int, ascending bool) ([]domain.DistrictTotal, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.DistrictTotals(ctx, state, crop, year, ascending)
}

func (s *CropStore) YearlyTotals(ctx context.Context, state, crop string, startYear, endYear int) (map[int]float64, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.YearlyTotals(ctx, state, crop, startYear, endYear)
}

// Snapshot is the normalized crop_production table. It is read-only once built.
type Snapshot struct {
	db          *sql.DB
	rows        int
	columns     []string
	hasDistrict bool
}

// Rows returns the number of records loaded
func (s *Snapshot) Rows() int { return s.rows }

// Columns returns the normalized CSV header
func (s *Snapshot) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// HasDistricts reports whether the CSV carried a district column
func (s *Snapshot) HasDistricts() bool { return s.hasDistrict }

func (s *Snapshot) CountRows(ctx context.Context, state string, year int) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*) FROM crop_production
		WHERE contains(lower(state), lower(?)) AND year = ?`,
		state, year,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return n, nil
}

func (s *Snapshot) CropTotal(ctx context.Context, state string, year int, crop string) (float64, int, error) {
	var (
		total float64
		n     int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(sum(production_tonnes), 0), count(*) FROM crop_production
		WHERE contains(lower(state), lower(?)) AND year = ? AND contains(lower(crop), lower(?))`,
		state, year, crop,
	).Scan(&total, &n)
	if err != nil {
		return 0, 0, fmt.Errorf("sum crop production: %w", err)
	}
	return total, n, nil
}

func (s *Snapshot) TopCrops(ctx context.Context, state string, year int, limit int) ([]domain.CropTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT crop, sum(production_tonnes) AS total FROM crop_production
		WHERE contains(lower(state), lower(?)) AND year = ? AND crop IS NOT NULL
		GROUP BY crop
		ORDER BY total DESC, crop
		LIMIT ?`,
		state, year, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query top crops: %w", err)
	}
	defer rows.Close()

	var out []domain.CropTotal
	for rows.Next() {
		var c domain.CropTotal
		if err := rows.Scan(&c.Crop, &c.ProductionTonnes); err != nil {
			return nil, fmt.Errorf("scan crop total: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Snapshot) DistrictTotals(ctx context.Context, state, crop string, year int, ascending bool) ([]domain.DistrictTotal, error) {
	if !s.hasDistrict {
		return nil, nil
	}
	direction := "DESC"
	if ascending {
		direction = "ASC"
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT district, sum(production_tonnes) AS total FROM crop_production
		WHERE contains(lower(state), lower(?)) AND year = ? AND contains(lower(crop), lower(?))
		  AND district IS NOT NULL
		GROUP BY district
		ORDER BY total `+direction+`, district`,
		state, year, crop,
	)
	if err != nil {
		return nil, fmt.Errorf("query district totals: %w", err)
	}
	defer rows.Close()

	var out []domain.DistrictTotal
	for rows.Next() {
		var d domain.DistrictTotal
		if err := rows.Scan(&d.District, &d.ProductionTonnes); err != nil {
			return nil, fmt.Errorf("scan district total: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Snapshot) YearlyTotals(ctx context.Context, state, crop string, startYear, endYear int) (map[int]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT year, sum(production_tonnes) FROM crop_production
		WHERE contains(lower(state), lower(?)) AND contains(lower(crop), lower(?))
		  AND year BETWEEN ? AND ?
		GROUP BY year`,
		state, crop, startYear, endYear,
	)
	if err != nil {
		return nil, fmt.Errorf("query yearly totals: %w", err)
	}
	defer rows.Close()

	out := make(map[int]float64)
	for rows.Next() {
		var (
			year  int
			total float64
		)
		if err := rows.Scan(&year, &total); err != nil {
			return nil, fmt.Errorf("scan yearly total: %w", err)
		}
		out[year] = total
	}
	return out, rows.Err()
}
