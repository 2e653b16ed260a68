package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"agency_backend/platform/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsMuxServesDeliveryCounters(t *testing.T) {
	m := metrics.New()
	m.Notification("quote_link", "ok")

	srv := httptest.NewServer(metricsMux(m))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `agency_quote_notifications_total{kind="quote_link",result="ok"} 1`)

	other, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer other.Body.Close()
	assert.Equal(t, http.StatusNotFound, other.StatusCode)
}
