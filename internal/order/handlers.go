// Package order serves the read-only order history.
package order

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ecobazaarx/backend-eco/internal/common"
	"github.com/ecobazaarx/backend-eco/internal/repo"
)

// Handlers reads immutable order snapshots.
type Handlers struct {
	Store *repo.Store
}

type itemResponse struct {
	ProductID     string  `json:"productId"`
	ProductName   string  `json:"productName"`
	ImageURL      *string `json:"imageUrl,omitempty"`
	Quantity      int     `json:"quantity"`
	PricePerItem  string  `json:"pricePerItem"`
	CarbonPerItem string  `json:"carbonPerItem"`
}

type orderResponse struct {
	ID                string         `json:"id"`
	Status            string         `json:"status"`
	OrderDate         time.Time      `json:"orderDate"`
	TotalAmount       string         `json:"totalAmount"`
	TotalCarbon       string         `json:"totalCarbon"`
	DiscountCode      *string        `json:"discountCode,omitempty"`
	DiscountAmount    *string        `json:"discountAmount,omitempty"`
	EcoPointsRedeemed int            `json:"ecoPointsRedeemed"`
	EcoPointsAmount   string         `json:"ecoPointsAmount"`
	ShippingCost      string         `json:"shippingCost"`
	TaxAmount         string         `json:"taxAmount"`
	ShippingAddress   string         `json:"shippingAddress"`
	Items             []itemResponse `json:"items,omitempty"`
}

// List handles GET /api/v1/orders.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	orders, err := h.Store.Q().ListOrdersByUser(r.Context(), userID, limit)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o, nil))
	}
	common.JSON(w, http.StatusOK, map[string]any{"orders": out})
}

// Get handles GET /api/v1/orders/{orderID}.
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}
	orderID := chi.URLParam(r, "orderID")
	o, err := h.Store.Q().GetOrder(r.Context(), orderID, userID)
	if errors.Is(err, repo.ErrNotFound) {
		common.RenderError(w, common.NotFound("order_not_found", "order not found", err))
		return
	}
	if err != nil {
		common.RenderError(w, err)
		return
	}
	items, err := h.Store.Q().ListOrderItems(r.Context(), o.ID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"order": toOrderResponse(o, items)})
}

func toOrderResponse(o repo.Order, items []repo.OrderItem) orderResponse {
	resp := orderResponse{
		ID:                o.ID,
		Status:            o.Status,
		OrderDate:         o.OrderDate,
		TotalAmount:       o.TotalAmount.StringFixed(2),
		TotalCarbon:       o.TotalCarbon.StringFixed(2),
		DiscountCode:      o.DiscountCode,
		EcoPointsRedeemed: o.EcoPointsRedeemed,
		EcoPointsAmount:   o.EcoPointsAmount.StringFixed(2),
		ShippingCost:      o.ShippingCost.StringFixed(2),
		TaxAmount:         o.TaxAmount.StringFixed(2),
		ShippingAddress:   o.ShippingAddress,
	}
	if o.DiscountAmount != nil {
		s := o.DiscountAmount.StringFixed(2)
		resp.DiscountAmount = &s
	}
	for _, it := range items {
		resp.Items = append(resp.Items, itemResponse{
			ProductID:     it.ProductID,
			ProductName:   it.ProductName,
			ImageURL:      it.ImageURL,
			Quantity:      it.Quantity,
			PricePerItem:  it.PricePerItem.StringFixed(2),
			CarbonPerItem: it.CarbonPerItem.StringFixed(2),
		})
	}
	return resp
}
