package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceScheduleRunCounters(t *testing.T) {
	m := NewMetricsService()
	m.ObserveScheduleRun("COMPLETED", 40*time.Millisecond, 3, map[string]int{"NO_FEASIBLE_SLOT": 2})
	m.ObserveScheduleRun("FAILED", 5*time.Millisecond, 0, nil)
	m.ObserveHTTPRequest(http.MethodPost, "/api/v1/exam-schedules/runs", http.StatusCreated, 20*time.Millisecond)

	snapshot := m.Snapshot()
	assert.Equal(t, uint64(2), snapshot.RunsTotal)
	assert.Equal(t, uint64(3), snapshot.ExamsPlaced)
	assert.Equal(t, uint64(2), snapshot.CourseFailures)
	assert.Equal(t, uint64(1), snapshot.RequestsTotal)
	assert.InDelta(t, 20.0, snapshot.AverageRequestDurationMs, 0.001)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `exam_schedule_runs_total{status="COMPLETED"} 1`))
	assert.True(t, strings.Contains(body, `exam_schedule_failures_total{reason="NO_FEASIBLE_SLOT"} 2`))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveScheduleRun("COMPLETED", time.Second, 1, nil)
	m.ObserveDBQuery("exam_insert", time.Millisecond)
	assert.Equal(t, MetricsSnapshot{}, m.Snapshot())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
