package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/itchpulse/internal/domain/dto"
	"github.com/guttosm/itchpulse/internal/domain/models"
	"github.com/guttosm/itchpulse/internal/service"
)

// mockVWAPServiceRouter implements service.VWAPService for testing router wiring.
type mockVWAPServiceRouter struct {
	resp []models.VWAPSample
	err  error
}

func (m *mockVWAPServiceRouter) GetVWAP(_ context.Context, _ string, _, _ *int) ([]models.VWAPSample, error) {
	return m.resp, m.err
}

var _ service.VWAPService = (*mockVWAPServiceRouter)(nil)

func TestNewRouter_WiringAndMiddlewares(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &mockVWAPServiceRouter{resp: []models.VWAPSample{
		{Symbol: "AAPL", HourBucket: 10, VWAP: 187.4321},
	}}
	h := NewHandler(svc)
	r := NewRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vwap?symbol=AAPL", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	// RequestID middleware should have injected the header
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}

	var out dto.VWAPResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	if out.Symbol != "AAPL" || len(out.Samples) != 1 || out.Samples[0].VWAP != 187.4321 {
		t.Fatalf("unexpected body: %+v", out)
	}
}
