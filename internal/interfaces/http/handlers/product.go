// internal/interfaces/http/handlers/product.go
package handlers

import (
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/your-org/storefront-backend/internal/domain/pricing"
	"github.com/your-org/storefront-backend/internal/interfaces/http/response"
	"github.com/your-org/storefront-backend/internal/pkg/apperr"
)

const maxPriceQuotes = 100

// ProductHandler serves live variant prices
type ProductHandler struct {
	pricing *pricing.Engine
}

// NewProductHandler creates a new product handler
func NewProductHandler(engine *pricing.Engine) *ProductHandler {
	return &ProductHandler{pricing: engine}
}

// GetPrices handles GET /variants/prices?ids=1,2,3. Unknown and inactive
// variants are left out.
func (h *ProductHandler) GetPrices(c *gin.Context) {
	const op = "pricing.quote"

	raw := strings.Split(c.Query("ids"), ",")
	ids := make([]uint, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := strconv.ParseUint(s, 10, 32)
		if err != nil || id == 0 {
			response.Error(c, apperr.Validation(op, "invalid variant id %q", s))
			return
		}
		ids = append(ids, uint(id))
	}
	if len(ids) == 0 {
		response.Error(c, apperr.Validation(op, "ids is required"))
		return
	}
	if len(ids) > maxPriceQuotes {
		response.Error(c, apperr.Validation(op, "at most %d ids per request", maxPriceQuotes))
		return
	}

	quotes, err := h.pricing.PriceVariants(c.Request.Context(), nil, ids)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]pricing.Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.Active {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VariantID < out[j].VariantID })
	response.OK(c, "Prices retrieved successfully", out)
}
