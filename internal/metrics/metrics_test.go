package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupExposesMeters(t *testing.T) {
	m, handler, err := Setup("blog-test", prometheus.NewRegistry())
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordHTTPRequest(ctx, http.MethodGet, "/api/topics/{topic_id}", http.StatusOK, 25*time.Millisecond)
	m.RecordTransaction(ctx, OutcomeCommit)
	m.RecordTransaction(ctx, OutcomeRollback)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, "blog_http_requests_total")
	assert.Contains(t, text, `route="/api/topics/{topic_id}"`)
	assert.Contains(t, text, "blog_http_duration_seconds")
	assert.Contains(t, text, "blog_db_transactions_total")
	assert.Contains(t, text, `outcome="commit"`)
	assert.Contains(t, text, `outcome="rollback"`)
}

func TestSetupTwiceWithSeparateRegistries(t *testing.T) {
	_, _, err := Setup("a", prometheus.NewRegistry())
	require.NoError(t, err)
	_, _, err = Setup("b", prometheus.NewRegistry())
	require.NoError(t, err)
}
