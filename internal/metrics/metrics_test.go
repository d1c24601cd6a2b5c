package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegister_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestIncJobRun_LabelsByResult(t *testing.T) {
	okBefore := testutil.ToFloat64(jobRuns.WithLabelValues("flush_cache", "ok"))
	errBefore := testutil.ToFloat64(jobRuns.WithLabelValues("flush_cache", "error"))

	IncJobRun("flush_cache", nil)
	IncJobRun("flush_cache", errors.New("boom"))
	IncJobRun("flush_cache", nil)

	assert.Equal(t, okBefore+2, testutil.ToFloat64(jobRuns.WithLabelValues("flush_cache", "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(jobRuns.WithLabelValues("flush_cache", "error")))
}

func TestObserveHTTPRequest(t *testing.T) {
	route := "/api/v1/partners/:partnerId/status"
	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", route, "429"))

	ObserveHTTPRequest("GET", route, 429, 3*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", route, "429")))
}

func TestAddPartnersRepaired(t *testing.T) {
	before := testutil.ToFloat64(partnersRepaired)
	AddPartnersRepaired(3)
	assert.Equal(t, before+3, testutil.ToFloat64(partnersRepaired))
}
