package server_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltgrid/billnotify/internal/billing"
	"github.com/voltgrid/billnotify/internal/processor"
	"github.com/voltgrid/billnotify/internal/server"
	"github.com/voltgrid/billnotify/internal/storage"
)

// memRunStore is an in-memory RunStore for handler tests.
type memRunStore struct {
	runs map[string]processor.RunReport
}

func newMemRunStore() *memRunStore {
	return &memRunStore{runs: map[string]processor.RunReport{}}
}

func (m *memRunStore) SaveRun(_ context.Context, report processor.RunReport) error {
	m.runs[report.ID] = report
	return nil
}

func (m *memRunStore) ListRuns(_ context.Context, _ int) ([]storage.RunSummary, error) {
	var out []storage.RunSummary
	for _, r := range m.runs {
		out = append(out, storage.RunSummary{
			ID:         r.ID,
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
			Total:      len(r.Results),
		})
	}
	return out, nil
}

func (m *memRunStore) GetRun(_ context.Context, id string) (*storage.RunDetail, error) {
	r, ok := m.runs[id]
	if !ok {
		return nil, nil
	}
	return &storage.RunDetail{
		RunSummary: storage.RunSummary{ID: r.ID, Total: len(r.Results)},
		Results:    r.Results,
	}, nil
}

func newTestServer(t *testing.T, store storage.RunStore, trigger func(context.Context) processor.RunReport) *httptest.Server {
	t.Helper()
	srv := server.New(server.Config{
		Customers: []billing.Customer{{
			ID:                   7,
			Name:                 "Ada Kowalski",
			Email:                "ada@example.com",
			PaymentMethods:       []billing.PaymentInstrument{billing.Card{Brand: "Visa", CardNumberLast4: "4242"}},
			DefaultPaymentMethod: billing.PaymentTypeCard,
		}},
		RunStore: store,
		Trigger:  trigger,
		Registry: prometheus.NewRegistry(),
		Port:     0,
		Logger:   slog.New(slog.DiscardHandler),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, newMemRunStore(), nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListCustomers(t *testing.T) {
	ts := newTestServer(t, newMemRunStore(), nil)

	resp, err := http.Get(ts.URL + "/api/customers")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var customers []billing.Customer
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&customers))
	require.Len(t, customers, 1)
	assert.Equal(t, "Ada Kowalski", customers[0].Name)
}

func TestGetRun_NotFound(t *testing.T) {
	ts := newTestServer(t, newMemRunStore(), nil)

	resp, err := http.Get(ts.URL + "/api/runs/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTriggerRun(t *testing.T) {
	store := newMemRunStore()
	report := processor.RunReport{
		ID:         "run-1",
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
		Results:    []processor.CustomerResult{{CustomerID: 7, Name: "Ada Kowalski", State: processor.StatePaid}},
	}
	ts := newTestServer(t, store, func(context.Context) processor.RunReport { return report })

	resp, err := http.Post(ts.URL+"/api/runs", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var got processor.RunReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "run-1", got.ID)

	// The report was persisted.
	saved, err := store.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, 1, saved.Total)
}

func TestListRuns(t *testing.T) {
	store := newMemRunStore()
	require.NoError(t, store.SaveRun(context.Background(), processor.RunReport{ID: "run-1"}))

	ts := newTestServer(t, store, nil)

	resp, err := http.Get(ts.URL + "/api/runs")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var runs []storage.RunSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runs))
	assert.Len(t, runs, 1)
}
