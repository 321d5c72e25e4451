package duckdb

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manthysbr/samarth/internal/core/domain"
)

const cropsCSV = ` State , District,Crop, Year ,Season,Production (Tonnes)
Punjab,Ludhiana,Wheat,2012-13,Rabi,1200.5
Punjab,Sangrur,Wheat,2012,Rabi,1500
Punjab,Sangrur,Rice,2012,Kharif,900
Punjab,Pathankot,Wheat,2012,Rabi,NA
Punjab,Ludhiana,Wheat,2013,Rabi,1300
Haryana,Karnal,Wheat,2012,Rabi,800
Haryana,Karnal,Bajra,2012,Kharif,
Himachal Pradesh,Kangra,Maize,2012,Kharif,50
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crops.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestStore(t *testing.T, content string) *CropStore {
	t.Helper()
	store := NewCropStore(testLogger(), writeCSV(t, content))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCropStore_Load(t *testing.T) {
	store := newTestStore(t, cropsCSV)

	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 8, snap.Rows())
	assert.True(t, snap.HasDistricts())
	assert.Equal(t, []string{"state", "district", "crop", "year", "season", "production_(tonnes)"}, snap.Columns())
}

func TestCropStore_Queries(t *testing.T) {
	store := newTestStore(t, cropsCSV)
	ctx := context.Background()

	t.Run("count rows uses substring match", func(t *testing.T) {
		n, err := store.CountRows(ctx, "punjab", 2012)
		require.NoError(t, err)
		assert.Equal(t, 4, n)

		n, err = store.CountRows(ctx, "Pradesh", 2012)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = store.CountRows(ctx, "Goa", 2012)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("crop total treats bad production as zero", func(t *testing.T) {
		total, rows, err := store.CropTotal(ctx, "Punjab", 2012, "wheat")
		require.NoError(t, err)
		assert.Equal(t, 3, rows)
		assert.InDelta(t, 2700.5, total, 1e-9)

		total, rows, err = store.CropTotal(ctx, "Punjab", 2012, "Cotton")
		require.NoError(t, err)
		assert.Zero(t, rows)
		assert.Zero(t, total)
	})

	t.Run("top crops", func(t *testing.T) {
		top, err := store.TopCrops(ctx, "Punjab", 2012, 5)
		require.NoError(t, err)
		assert.Equal(t, []domain.CropTotal{
			{Crop: "Wheat", ProductionTonnes: 2700.5},
			{Crop: "Rice", ProductionTonnes: 900},
		}, top)

		top, err = store.TopCrops(ctx, "Haryana", 2012, 1)
		require.NoError(t, err)
		assert.Equal(t, []domain.CropTotal{{Crop: "Wheat", ProductionTonnes: 800}}, top)
	})

	t.Run("district totals", func(t *testing.T) {
		desc, err := store.DistrictTotals(ctx, "Punjab", "Wheat", 2012, false)
		require.NoError(t, err)
		require.Len(t, desc, 3)
		assert.Equal(t, domain.DistrictTotal{District: "Sangrur", ProductionTonnes: 1500}, desc[0])

		asc, err := store.DistrictTotals(ctx, "Punjab", "Wheat", 2012, true)
		require.NoError(t, err)
		assert.Equal(t, domain.DistrictTotal{District: "Pathankot", ProductionTonnes: 0}, asc[0])
	})

	t.Run("yearly totals", func(t *testing.T) {
		totals, err := store.YearlyTotals(ctx, "Punjab", "Wheat", 2010, 2014)
		require.NoError(t, err)
		assert.Equal(t, map[int]float64{2012: 2700.5, 2013: 1300}, totals)
	})
}

func TestCropStore_WithoutDistrictColumn(t *testing.T) {
	store := newTestStore(t, "State,Crop,Year,Production\nGoa,Rice,2010,100\n")
	ctx := context.Background()

	has, err := store.HasDistricts(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	totals, err := store.DistrictTotals(ctx, "Goa", "Rice", 2010, false)
	require.NoError(t, err)
	assert.Empty(t, totals)

	total, rows, err := store.CropTotal(ctx, "Goa", 2010, "Rice")
	require.NoError(t, err)
	assert.Equal(t, 1, rows)
	assert.InDelta(t, 100, total, 1e-9)
}

func TestCropStore_MissingColumns(t *testing.T) {
	store := newTestStore(t, "State,Crop,Output\nGoa,Rice,100\n")

	_, err := store.Snapshot(context.Background())
	require.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), "production, year")
}

func TestCropStore_MissingFileIsRetried(t *testing.T) {
	path := filepath.Join(t.TempDir(), "late.csv")
	store := NewCropStore(testLogger(), path)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	_, err := store.CountRows(ctx, "Goa", 2010)
	require.Error(t, err)
	assert.Equal(t, "CSV not found at "+path, err.Error())

	require.NoError(t, os.WriteFile(path, []byte("State,Crop,Year,Production\nGoa,Rice,2010,100\n"), 0o644))

	n, err := store.CountRows(ctx, "Goa", 2010)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCropStore_ConcurrentFirstUseLoadsOnce(t *testing.T) {
	store := newTestStore(t, cropsCSV)

	var wg sync.WaitGroup
	snaps := make([]*Snapshot, 16)
	errs := make([]error, len(snaps))
	for i := range snaps {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snaps[i], errs[i] = store.Snapshot(context.Background())
		}(i)
	}
	wg.Wait()

	for i := range snaps {
		require.NoError(t, errs[i])
		assert.Same(t, snaps[0], snaps[i])
	}
}

func TestCropStore_LoadSurvivesCallerCancel(t *testing.T) {
	store := newTestStore(t, cropsCSV)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// the load itself ignores cancellation; only queries observe it
	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, snap.Rows())
}

func TestCropStore_Close(t *testing.T) {
	store := newTestStore(t, cropsCSV)
	ctx := context.Background()

	first, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	second, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "crop_year", normalizeHeader("  Crop Year "))
	assert.Equal(t, "state_name", normalizeHeader("State_Name"))
	assert.Equal(t, `"we""ird"`, quoteIdent(`we"ird`))
	assert.Equal(t, `'it''s.csv'`, quoteLiteral("it's.csv"))
}
