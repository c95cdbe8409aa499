package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"leagueback/internal/impact"
	"leagueback/internal/ratelimit"
	"leagueback/internal/riot"
	"leagueback/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAnalyzer struct {
	lastCount, lastStart, lastRecent int
	lastPage                         service.Page
	err                              error
}

func (f *fakeAnalyzer) Account(_ context.Context, gameName, tagLine string) (*riot.AccountResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &riot.AccountResponse{PUUID: "p-1", GameName: gameName, TagLine: tagLine}, nil
}

func (f *fakeAnalyzer) MatchHistory(_ context.Context, _ string, count, start int) ([]string, error) {
	f.lastCount, f.lastStart = count, start
	if f.err != nil {
		return nil, f.err
	}
	return []string{"NA1_2", "NA1_1"}, nil
}

func (f *fakeAnalyzer) AnalyzeMatch(_ context.Context, matchID, puuid string) (*service.Analysis, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &service.Analysis{
		Summary: &impact.MatchSummary{
			ID:         matchID,
			KDA:        "7/2/11",
			GameResult: impact.Victory,
			GameTime:   "31:05",
			Data:       []impact.ChartPoint{{Minute: 1, YourImpact: 25, TeamImpact: 6.25}},
			YourImpact: 25,
			TeamImpact: 6.25,
		},
		Category: impact.ImpactWins,
	}, nil
}

func (f *fakeAnalyzer) StoredMatches(_ context.Context, _ string, page service.Page) (*service.StoredMatches, error) {
	f.lastPage = page
	if f.err != nil {
		return nil, f.err
	}
	return &service.StoredMatches{Matches: []*impact.MatchSummary{}, HasMoreInAPI: true}, nil
}

func (f *fakeAnalyzer) ImpactCategories(_ context.Context, _ string, recent int) (*service.CategoryReport, error) {
	f.lastRecent = recent
	if f.err != nil {
		return nil, f.err
	}
	return &service.CategoryReport{
		Categories: []impact.Category{impact.ImpactWins},
		Lifetime:   impact.Counts{ImpactWins: 1},
		Recent:     impact.Counts{ImpactWins: 1},
	}, nil
}

func newTestRouter(svc Analyzer, limiter ratelimit.Allower) *gin.Engine {
	return SetupRouter(RouterConfig{
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		Limiter:            limiter,
	}, svc, zap.NewNop())
}

func get(t *testing.T, r http.Handler, target string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	w := get(t, newTestRouter(&fakeAnalyzer{}, nil), "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestRequestIDIsPropagated(t *testing.T) {
	w := get(t, newTestRouter(&fakeAnalyzer{}, nil), "/health", requestIDHeader, "req-42")
	assert.Equal(t, "req-42", w.Header().Get(requestIDHeader))
}

func TestMissingParameters(t *testing.T) {
	r := newTestRouter(&fakeAnalyzer{}, nil)
	for _, target := range []string{
		"/api/account?gameName=Faker",
		"/api/match-history",
		"/api/match-performance?matchId=NA1_1",
		"/api/stored-matches",
		"/api/impact-categories",
		"/api/match-history?puuid=p-1&count=0",
		"/api/match-history?puuid=p-1&count=abc",
		"/api/impact-categories?puuid=p-1&recent=-3",
		"/api/stored-matches?puuid=p-1&limit=0",
		"/api/stored-matches?puuid=p-1&limit=101",
		"/api/stored-matches?puuid=p-1&limit=5&offset=-1",
		"/api/stored-matches?puuid=p-1&offset=5",
	} {
		w := get(t, r, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		assert.NotEmpty(t, decode(t, w)["error"], target)
	}
}

func TestGetAccount(t *testing.T) {
	w := get(t, newTestRouter(&fakeAnalyzer{}, nil), "/api/account?gameName=John%20Doe&tagLine=NA1")
	require.Equal(t, http.StatusOK, w.Code)

	var acc riot.AccountResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &acc))
	assert.Equal(t, riot.AccountResponse{PUUID: "p-1", GameName: "John Doe", TagLine: "NA1"}, acc)
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&riot.StatusError{StatusCode: http.StatusNotFound}, http.StatusNotFound},
		{&riot.StatusError{StatusCode: http.StatusTooManyRequests}, http.StatusTooManyRequests},
		{&riot.StatusError{StatusCode: http.StatusForbidden}, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		w := get(t, newTestRouter(&fakeAnalyzer{err: tt.err}, nil), "/api/account?gameName=a&tagLine=b")
		assert.Equal(t, tt.want, w.Code, tt.err.Error())
	}
}

func TestGetMatchHistory(t *testing.T) {
	svc := &fakeAnalyzer{}
	r := newTestRouter(svc, nil)

	w := get(t, r, "/api/match-history?puuid=p-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["NA1_2","NA1_1"]`, w.Body.String())
	assert.Equal(t, defaultHistoryCount, svc.lastCount)
	assert.Equal(t, 0, svc.lastStart)

	w = get(t, r, "/api/match-history?puuid=p-1&count=5&start=10")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, svc.lastCount)
	assert.Equal(t, 10, svc.lastStart)
}

func TestGetMatchPerformance(t *testing.T) {
	w := get(t, newTestRouter(&fakeAnalyzer{}, nil), "/api/match-performance?matchId=NA1_1&userPuuid=p-1")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "impactWins", body["category"])
	summary := body["matchSummary"].(map[string]interface{})
	assert.Equal(t, "NA1_1", summary["id"])
	assert.Equal(t, "Victory", summary["gameResult"])
	assert.Equal(t, 25.0, summary["yourImpact"])
}

func TestGetMatchPerformance_Failures(t *testing.T) {
	w := get(t, newTestRouter(&fakeAnalyzer{err: impact.ErrParticipantNotFound}, nil),
		"/api/match-performance?matchId=NA1_1&userPuuid=p-x")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "User not found in match.", body["error"])

	w = get(t, newTestRouter(&fakeAnalyzer{err: errors.New("timeline unavailable")}, nil),
		"/api/match-performance?matchId=NA1_1&userPuuid=p-1")
	body = decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "timeline unavailable", body["error"])
}

func TestGetStoredMatches(t *testing.T) {
	w := get(t, newTestRouter(&fakeAnalyzer{}, nil), "/api/stored-matches?puuid=p-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"matches":[],"storedCount":0,"hasMoreInApi":true}`, w.Body.String())
}

func TestGetStoredMatches_Page(t *testing.T) {
	svc := &fakeAnalyzer{}
	r := newTestRouter(svc, nil)

	require.Equal(t, http.StatusOK, get(t, r, "/api/stored-matches?puuid=p-1").Code)
	assert.Equal(t, service.Page{}, svc.lastPage)

	require.Equal(t, http.StatusOK, get(t, r, "/api/stored-matches?puuid=p-1&limit=10").Code)
	assert.Equal(t, service.Page{Limit: 10}, svc.lastPage)

	require.Equal(t, http.StatusOK, get(t, r, "/api/stored-matches?puuid=p-1&limit=10&offset=20").Code)
	assert.Equal(t, service.Page{Limit: 10, Offset: 20}, svc.lastPage)
}

func TestGetImpactCategories(t *testing.T) {
	svc := &fakeAnalyzer{}
	r := newTestRouter(svc, nil)

	w := get(t, r, "/api/impact-categories?puuid=p-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.DefaultRecent, svc.lastRecent)

	body := decode(t, w)
	assert.Equal(t, []interface{}{"impactWins"}, body["categories"])
	lifetime := body["lifetime"].(map[string]interface{})
	assert.Equal(t, 1.0, lifetime["impactWins"])

	get(t, r, "/api/impact-categories?puuid=p-1&recent=3")
	assert.Equal(t, 3, svc.lastRecent)
}

func TestCORS(t *testing.T) {
	r := newTestRouter(&fakeAnalyzer{}, nil)

	w := get(t, r, "/health", "Origin", "http://localhost:3000")
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	w = get(t, r, "/health", "Origin", "https://evil.example")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodOptions, "/api/account", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "GET")
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.NewKeyed(ratelimit.Rule{Limit: 2, Window: time.Minute})
	r := newTestRouter(&fakeAnalyzer{}, limiter)

	for i := 0; i < 2; i++ {
		w := get(t, r, "/api/stored-matches?puuid=p-1")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}

	w := get(t, r, "/api/stored-matches?puuid=p-1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// health is not limited
	assert.Equal(t, http.StatusOK, get(t, r, "/health").Code)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (ratelimit.Result, error) {
	return ratelimit.Result{}, errors.New("redis down")
}

func TestRateLimit_FailsOpen(t *testing.T) {
	w := get(t, newTestRouter(&fakeAnalyzer{}, failingLimiter{}), "/api/stored-matches?puuid=p-1")
	assert.Equal(t, http.StatusOK, w.Code)
}
