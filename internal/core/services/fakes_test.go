package services

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/manthysbr/samarth/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// step answers one reasoning call given the composed prompt.
type step func(prompt string) (string, error)

func reply(text string) step {
	return func(string) (string, error) { return text, nil }
}

func fail(err error) step {
	return func(string) (string, error) { return "", err }
}

// scriptedLLM plays back steps in order, then repeats fallback forever.
type scriptedLLM struct {
	mu       sync.Mutex
	steps    []step
	fallback step
	prompts  []string
}

func newScriptedLLM(steps ...step) *scriptedLLM {
	return &scriptedLLM{steps: steps, fallback: reply("I am still thinking about it.")}
}

func (l *scriptedLLM) GenerateText(ctx context.Context, prompt string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prompts = append(l.prompts, prompt)
	if len(l.steps) == 0 {
		return l.fallback(prompt)
	}
	next := l.steps[0]
	l.steps = l.steps[1:]
	return next(prompt)
}

func (l *scriptedLLM) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prompts)
}

func (l *scriptedLLM) Prompt(i int) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.prompts[i]
}

type MockCropRepository struct {
	mock.Mock
}

func (m *MockCropRepository) CountRows(ctx context.Context, state string, year int) (int, error) {
	args := m.Called(ctx, state, year)
	return args.Int(0), args.Error(1)
}

func (m *MockCropRepository) CropTotal(ctx context.Context, state string, year int, crop string) (float64, int, error) {
	args := m.Called(ctx, state, year, crop)
	return args.Get(0).(float64), args.Int(1), args.Error(2)
}

func (m *MockCropRepository) TopCrops(ctx context.Context, state string, year int, limit int) ([]domain.CropTotal, error) {
	args := m.Called(ctx, state, year, limit)
	crops, _ := args.Get(0).([]domain.CropTotal)
	return crops, args.Error(1)
}

func (m *MockCropRepository) HasDistricts(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockCropRepository) DistrictTotals(ctx context.Context, state, crop string, year int, ascending bool) ([]domain.DistrictTotal, error) {
	args := m.Called(ctx, state, crop, year, ascending)
	totals, _ := args.Get(0).([]domain.DistrictTotal)
	return totals, args.Error(1)
}

func (m *MockCropRepository) YearlyTotals(ctx context.Context, state, crop string, startYear, endYear int) (map[int]float64, error) {
	args := m.Called(ctx, state, crop, startYear, endYear)
	totals, _ := args.Get(0).(map[int]float64)
	return totals, args.Error(1)
}

type MockRainfallSource struct {
	mock.Mock
}

func (m *MockRainfallSource) Records(ctx context.Context) ([]domain.RainfallRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]domain.RainfallRecord)
	return records, args.Error(1)
}

const (
	testCropSource     = "data.gov.in (Crop Production): data/agriculture_production.csv"
	testRainfallSource = "data.gov.in (Rainfall 1901-2017): https://api.data.gov.in/resource/test"
)

func newTestDataTools(crops *MockCropRepository, rain *MockRainfallSource) *DataTools {
	return NewDataTools(testLogger(), crops, rain, testCropSource, testRainfallSource)
}
