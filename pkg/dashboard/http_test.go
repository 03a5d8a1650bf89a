package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(svc *Service) *mux.Router {
	router := mux.NewRouter()
	NewHTTPHandler(svc, 1<<20).Register(router)
	return router
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHTTPRunDashboard(t *testing.T) {
	router := newTestRouter(newTestService())

	rec := serve(router, http.MethodGet, "/api/v1/dashboards/tat?period=thisMonth&hospitalUnit=mainLab", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var res Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, TAT, res.Dashboard)
	assert.Equal(t, 2, res.Counts.Matched)
	require.NotNil(t, res.TAT)
	assert.Equal(t, 1, res.TAT.Summary.Delayed)

	rec = serve(router, http.MethodGet, "/api/v1/dashboards/numbers?top=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Len(t, res.Top["tests"], 1)
}

func TestHTTPErrorMapping(t *testing.T) {
	router := newTestRouter(newTestService())

	rec := serve(router, http.MethodGet, "/api/v1/dashboards/pharmacy", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(router, http.MethodGet, "/api/v1/dashboards/tat?startDate=2025/06/01", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	failing := newTestRouter(NewService(WithSource(TAT, failingSource{err: errors.New("dial tcp: refused")})))
	rec = serve(failing, http.MethodGet, "/api/v1/dashboards/tat", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "refused")

	rec = serve(router, http.MethodPost, "/api/v1/dashboards/tat/query", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(router, http.MethodPost, "/api/v1/dashboards/tat/query", `{"query":"select unit where unit > 3"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPQuery(t *testing.T) {
	router := newTestRouter(newTestService())
	rec := serve(router, http.MethodPost, "/api/v1/dashboards/revenue/query", `{"query":"select unit where labSection = chemistry"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res QueryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 4, res.Counts.Matched)
	require.Len(t, res.Groups["unit"], 2)
	assert.Equal(t, "ICU", res.Groups["unit"][0].Key)
	assert.Equal(t, 175.5, res.Groups["unit"][0].Value)
}

func TestHTTPExport(t *testing.T) {
	router := newTestRouter(newTestService())
	rec := serve(router, http.MethodGet, "/api/v1/dashboards/numbers/export?group=hour", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, "hour,value\n09,2\n14,1\n", rec.Body.String())

	rec = serve(router, http.MethodGet, "/api/v1/dashboards/numbers/export?group=patient", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPVerify(t *testing.T) {
	router := newTestRouter(newTestService())

	rec := serve(router, http.MethodPost, "/api/v1/dashboards/verify", `{"period":"thisQuarter","hospitalUnit":"annex"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var res VerifyResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Valid)
	assert.Equal(t, "annex", res.Filter.HospitalUnit)

	rec = serve(router, http.MethodPost, "/api/v1/dashboards/verify", `{"startDate":"yesterday"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Valid)
}

func TestHTTPRefreshAndUnits(t *testing.T) {
	src := &invalidatingSource{}
	router := newTestRouter(newTestService(WithSource(Numbers, src)))

	rec := serve(router, http.MethodPost, "/api/v1/datasets/numbers/refresh", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, src.invalidations)

	rec = serve(router, http.MethodPost, "/api/v1/datasets/pharmacy/refresh", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(router, http.MethodGet, "/api/v1/units", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Groups map[string][]string `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"ANNEX"}, body.Groups["annex"])
	assert.Contains(t, body.Groups["mainLab"], "ICU")
}
