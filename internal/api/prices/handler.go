// Package prices exposes the cost tables used by the frontend.
package prices

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liliang-cn/imagestudio/internal/pricing"
)

// Estimate modes
const (
	ModeDirect = "direct"
	ModeChat   = "chat"
)

// Estimate is the cost of one image
type Estimate struct {
	Mode            string  `json:"mode"`
	Model           string  `json:"model,omitempty"`
	Size            string  `json:"size"`
	Quality         string  `json:"quality"`
	Price           float64 `json:"price"`
	FormattedPrice  string  `json:"formattedPrice"`
	Tokens          int     `json:"tokens,omitempty"`
	FormattedTokens string  `json:"formattedTokens,omitempty"`
}

// Handler serves pricing data. It holds no state.
type Handler struct{}

// NewHandler creates a new pricing handler
func NewHandler() *Handler {
	return &Handler{}
}

// RegisterRoutes registers pricing routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.Tables)
	r.GET("/estimate", h.Estimate)
}

// Tables returns the full direct and chat pricing tables
func (h *Handler) Tables(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"direct": pricing.DirectTable(),
		"models": pricing.Models(),
		"chat": gin.H{
			"tokenPrice": pricing.TokenPrice,
			"tokens":     pricing.ChatTokenTable(),
		},
	})
}

// Estimate prices one model/size/quality combination
func (h *Handler) Estimate(c *gin.Context) {
	mode := c.DefaultQuery("mode", ModeDirect)
	model := c.Query("model")
	size := c.Query("size")
	quality := c.Query("quality")

	est := Estimate{Mode: mode, Size: size, Quality: quality}
	var ok bool

	switch mode {
	case ModeDirect:
		est.Model = model
		est.Price, ok = pricing.DirectCost(model, quality, size)
	case ModeChat:
		est.Tokens, ok = pricing.ChatTokens(quality, size)
		if ok {
			est.Price, _ = pricing.ChatCost(quality, size)
			est.FormattedTokens = pricing.FormatTokens(est.Tokens)
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be direct or chat"})
		return
	}

	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No pricing for this combination"})
		return
	}

	est.FormattedPrice = pricing.FormatPrice(est.Price)
	c.JSON(http.StatusOK, est)
}
