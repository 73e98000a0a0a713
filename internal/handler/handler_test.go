package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/catalog"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/scheduler"
)

const testConfiguration = `{
  "product_requirements": {
    "trading_stations": {"LMD": 2, "Orundum": 0},
    "manufacturing_stations": {"Pure Gold": 2, "Originium Shard": 0, "Battle Record": 2}
  },
  "trading_stations_count": 2,
  "manufacturing_stations_count": 4,
  "Fiammetta": {"enable": false},
  "drones": {"enable": false, "order": "pre", "targets": []}
}`

type testRoster struct {
	entries []domain.EfficiencyEntry
	records []map[string]any
}

func (tr *testRoster) add(id string, f domain.FacilityType, efficiency float64) {
	tr.entries = append(tr.entries, domain.EfficiencyEntry{WorkerID: id, Facility: f, Level: 1, Efficiency: efficiency})
	tr.records = append(tr.records, map[string]any{"id": id, "name": id, "rarity": 5, "elite": 2, "level": 1, "own": true})
}

// 6 个贸易站干员、12 个制造站干员、powerCount 个发电站干员，全部练满
// 所有干员都会上岗，每班总效率为 210 + 390 + 发电站之和
func newTestRoster(powerCount int) *testRoster {
	tr := &testRoster{}
	for i := 1; i <= 6; i++ {
		tr.add(fmt.Sprintf("t%d", i), domain.FacilityTrading, float64(10*i))
	}
	for i := 1; i <= 12; i++ {
		tr.add(fmt.Sprintf("m%02d", i), domain.FacilityManufacturing, float64(5*i))
	}
	for i := 1; i <= powerCount; i++ {
		tr.add(fmt.Sprintf("p%d", i), domain.FacilityPower, float64(10*i))
	}
	return tr
}

func newTestHandler(t *testing.T, entries []domain.EfficiencyEntry) *Handler {
	t.Helper()

	cat, err := catalog.FromEntries(entries)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Optimizer.Timeout = 30
	cfg.JWT.Secret = "secret"

	h, err := NewHandler(cfg, nil, nil, nil, scheduler.NewOptimizer(cat, nil, nil))
	require.NoError(t, err)
	h.RegisterRoutes()
	return h
}

type optimizationEnvelope struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Data    OptimizationResponse `json:"data"`
}

func postOptimization(t *testing.T, h *Handler, operators any, cfg string) optimizationEnvelope {
	t.Helper()

	operatorsData, err := json.Marshal(operators)
	require.NoError(t, err)
	body := fmt.Sprintf(`{"operators": %s, "config": %s}`, operatorsData, cfg)

	req := httptest.NewRequest(http.MethodPost, "/optimizations", strings.NewReader(body))
	ctx := context.WithValue(req.Context(), MyInfoCtx, &domain.User{ID: 1, Email: "doctor@rhodes.island"})
	rec := httptest.NewRecorder()

	h.CreateOptimization(rec, req.WithContext(ctx))

	var env optimizationEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func TestCreateOptimization(t *testing.T) {
	tr := newTestRoster(3)
	h := newTestHandler(t, tr.entries)

	env := postOptimization(t, h, tr.records, testConfiguration)
	require.True(t, env.Success, env.Message)

	resp := env.Data
	require.NotNil(t, resp.Outcome)
	assert.InDelta(t, 3*660.0, resp.Current.TotalEfficiency, 1e-9)
	assert.InDelta(t, resp.Current.TotalEfficiency, resp.Potential.TotalEfficiency, 1e-9)
	assert.Empty(t, resp.Upgrades)
	assert.Len(t, resp.RunID, 36)
	assert.Equal(t, h.optimizer.Load().Catalog().Version(), resp.CatalogVersion)
	assert.NotEmpty(t, resp.Key)
}

func TestCreateOptimizationRejectsMalformedInput(t *testing.T) {
	tr := newTestRoster(3)
	h := newTestHandler(t, tr.entries)

	env := postOptimization(t, h, map[string]any{"id": "t1"}, testConfiguration)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "operators")

	env = postOptimization(t, h, tr.records, `{"trading_stations_count": "2"}`)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "config")
}

func TestCreateOptimizationInfeasible(t *testing.T) {
	tr := newTestRoster(0)
	h := newTestHandler(t, tr.entries)

	env := postOptimization(t, h, tr.records, testConfiguration)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "第 1 班")
}

func TestOptimizationKey(t *testing.T) {
	workers := []domain.Worker{{ID: "a", Tier: 1}, {ID: "b", Tier: 2}}
	reversed := []domain.Worker{workers[1], workers[0]}
	cfg := domain.DefaultConfiguration()

	key, err := OptimizationKey("v1", workers, cfg)
	require.NoError(t, err)

	same, err := OptimizationKey("v1", reversed, cfg)
	require.NoError(t, err)
	assert.Equal(t, key, same)

	otherCatalog, err := OptimizationKey("v2", workers, cfg)
	require.NoError(t, err)
	assert.NotEqual(t, key, otherCatalog)

	cfg.Rotation = true
	otherConfig, err := OptimizationKey("v1", workers, cfg)
	require.NoError(t, err)
	assert.NotEqual(t, key, otherConfig)
}

func TestGetCatalog(t *testing.T) {
	tr := newTestRoster(3)
	h := newTestHandler(t, tr.entries)

	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/catalog", nil))

	var env struct {
		Success bool        `json:"success"`
		Data    CatalogInfo `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.True(t, env.Success)
	assert.Equal(t, len(tr.entries), env.Data.Size)
	assert.Contains(t, env.Data.Products, domain.ProductLMD)
}

func TestOptimizationsRequireLogin(t *testing.T) {
	tr := newTestRoster(3)
	h := newTestHandler(t, tr.entries)

	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/optimizations", bytes.NewReader([]byte("{}"))))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "用户未登录", resp.Message)
}

func TestRequiredRole(t *testing.T) {
	h := newTestHandler(t, newTestRoster(3).entries)

	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	})
	guarded := h.RequiredRole([]domain.Role{domain.RoleAdmin})(next)

	req := httptest.NewRequest(http.MethodPost, "/catalog", nil)
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req.WithContext(context.WithValue(req.Context(), RoleCtxKey, string(domain.RoleMember))))
	assert.False(t, reached)
	assert.Contains(t, rec.Body.String(), "权限不足")

	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, req.WithContext(context.WithValue(req.Context(), RoleCtxKey, string(domain.RoleAdmin))))
	assert.True(t, reached)
}
