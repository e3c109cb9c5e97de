package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ecobazaarx/backend-eco/internal/checkout"
	"github.com/ecobazaarx/backend-eco/internal/common"
)

// Handlers exposes the cart surface.
type Handlers struct {
	Service  *Service
	Checkout *checkout.Service
}

type addItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type applyDiscountRequest struct {
	Code string `json:"code" validate:"required"`
}

type selectShippingRequest struct {
	AddressID string `json:"addressId" validate:"required,uuid"`
}

type cartItemResponse struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	ImageURL    *string `json:"imageUrl,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   string  `json:"unitPrice"`
	UnitCarbon  string  `json:"unitCarbon"`
	EcoPoints   int     `json:"ecoPoints"`
}

// Get handles GET /api/v1/cart: items plus the priced breakdown.
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}
	view, err := h.Service.Store.CartView(r.Context(), userID, h.Checkout.TaxRateName)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	totals, err := h.Checkout.PreviewTotals(r.Context(), userID)
	if err != nil {
		common.RenderError(w, err)
		return
	}

	items := make([]cartItemResponse, 0, len(view.Lines))
	for _, l := range view.Lines {
		items = append(items, cartItemResponse{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			ImageURL:    l.ImageURL,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice.StringFixed(2),
			UnitCarbon:  l.UnitCarbon.StringFixed(2),
			EcoPoints:   l.EcoPoints,
		})
	}
	resp := map[string]any{
		"items":  items,
		"totals": totals,
	}
	if view.Discount != nil {
		resp["discountCode"] = view.Discount.Code
	}
	if view.Address != nil {
		resp["shippingAddressId"] = view.Address.ID
	}
	if view.Zone != nil {
		resp["transportZone"] = view.Zone.Name
	}
	common.JSON(w, http.StatusOK, resp)
}

// AddItem handles POST /api/v1/cart/items.
func (h *Handlers) AddItem(w http.ResponseWriter, r *http.Request) {
	h.withUser(w, r, func(userID string) error {
		var req addItemRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			return err
		}
		return h.Service.AddItem(r.Context(), userID, req.ProductID, req.Quantity)
	})
}

// RemoveItem handles DELETE /api/v1/cart/items/{productID}.
func (h *Handlers) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.withUser(w, r, func(userID string) error {
		return h.Service.RemoveItem(r.Context(), userID, chi.URLParam(r, "productID"))
	})
}

// ApplyDiscount handles POST /api/v1/cart/discount.
func (h *Handlers) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	h.withUser(w, r, func(userID string) error {
		var req applyDiscountRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			return err
		}
		return h.Service.ApplyDiscount(r.Context(), userID, req.Code)
	})
}

// RemoveDiscount handles DELETE /api/v1/cart/discount.
func (h *Handlers) RemoveDiscount(w http.ResponseWriter, r *http.Request) {
	h.withUser(w, r, func(userID string) error {
		return h.Service.RemoveDiscount(r.Context(), userID)
	})
}

// SelectShipping handles PUT /api/v1/cart/shipping.
func (h *Handlers) SelectShipping(w http.ResponseWriter, r *http.Request) {
	h.withUser(w, r, func(userID string) error {
		var req selectShippingRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			return err
		}
		return h.Service.SelectShipping(r.Context(), userID, req.AddressID)
	})
}

// ShippingOptions handles GET /api/v1/cart/shipping-options?addressId=...
func (h *Handlers) ShippingOptions(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}
	addressID := r.URL.Query().Get("addressId")
	if addressID == "" {
		common.JSONError(w, http.StatusBadRequest, "invalid_request", "addressId query parameter is required", nil)
		return
	}
	zone, err := h.Service.QuoteShipping(r.Context(), userID, addressID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"transportZone":    zone.Name,
		"shippingCost":     zone.Cost.StringFixed(2),
		"shippingCarbonKg": zone.FlatCarbon.StringFixed(2),
	})
}

func (h *Handlers) withUser(w http.ResponseWriter, r *http.Request, fn func(userID string) error) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}
	if err := fn(userID); err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"ok": true})
}
