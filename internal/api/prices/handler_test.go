package prices

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liliang-cn/imagestudio/internal/pricing"
)

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler().RegisterRoutes(r.Group("/api/pricing"))
	return r
}

func get(t *testing.T, r *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestEstimate(t *testing.T) {
	r := setupRouter()

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantPrice  float64
		wantTokens float64
	}{
		{"direct default mode", "?model=dall-e-2&size=256x256&quality=auto", http.StatusOK, 0.016, 0},
		{"direct hd", "?mode=direct&model=dall-e-3&size=1792x1024&quality=hd", http.StatusOK, 0.12, 0},
		{"chat", "?mode=chat&size=1024x1024&quality=low", http.StatusOK, 272 * pricing.TokenPrice, 272},
		{"unknown combination", "?model=dall-e-2&size=1792x1024&quality=hd", http.StatusBadRequest, 0, 0},
		{"unknown mode", "?mode=batch", http.StatusBadRequest, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := get(t, r, "/api/pricing/estimate"+tt.query)
			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				assert.NotEmpty(t, body["error"])
				return
			}
			assert.InDelta(t, tt.wantPrice, body["price"], 1e-12)
			assert.Equal(t, pricing.FormatPrice(tt.wantPrice), body["formattedPrice"])
			if tt.wantTokens > 0 {
				assert.Equal(t, tt.wantTokens, body["tokens"])
			} else {
				assert.NotContains(t, body, "tokens")
			}
		})
	}
}

func TestTables(t *testing.T) {
	w, body := get(t, setupRouter(), "/api/pricing")
	require.Equal(t, http.StatusOK, w.Code)

	direct := body["direct"].(map[string]any)
	assert.Contains(t, direct, "gpt-image-1")
	assert.Len(t, body["models"], len(pricing.Models()))

	chat := body["chat"].(map[string]any)
	assert.InDelta(t, pricing.TokenPrice, chat["tokenPrice"], 1e-15)
	assert.Contains(t, chat["tokens"], "high")
}
