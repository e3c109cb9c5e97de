package checkout

import (
	"net/http"

	"github.com/ecobazaarx/backend-eco/internal/common"
	"github.com/ecobazaarx/backend-eco/internal/repo"
)

// Handlers exposes checkout over HTTP.
type Handlers struct {
	Service *Service
}

type placeOrderRequest struct {
	PointsToRedeem   int    `json:"pointsToRedeem" validate:"gte=0"`
	PaymentMethodRef string `json:"paymentMethodRef" validate:"required"`
}

type orderItemResponse struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
	Price       string `json:"pricePerItem"`
	Carbon      string `json:"carbonPerItem"`
}

type orderResponse struct {
	ID                string              `json:"id"`
	Status            string              `json:"status"`
	TotalAmount       string              `json:"totalAmount"`
	TotalCarbon       string              `json:"totalCarbon"`
	DiscountCode      *string             `json:"discountCode,omitempty"`
	DiscountAmount    string              `json:"discountAmount"`
	EcoPointsRedeemed int                 `json:"ecoPointsRedeemed"`
	EcoPointsAmount   string              `json:"ecoPointsAmount"`
	ShippingCost      string              `json:"shippingCost"`
	TaxAmount         string              `json:"taxAmount"`
	ShippingAddress   string              `json:"shippingAddress"`
	PointsEarned      int                 `json:"pointsEarned"`
	Items             []orderItemResponse `json:"items"`
}

// PlaceOrder handles POST /api/v1/checkout.
func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}
	var req placeOrderRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RenderError(w, err)
		return
	}

	res, err := h.Service.PlaceOrder(r.Context(), userID, PlaceOrderRequest{
		PointsToRedeem:   req.PointsToRedeem,
		PaymentMethodRef: req.PaymentMethodRef,
	})
	if err != nil {
		common.RenderError(w, err)
		return
	}

	if res.ContinuationToken != "" {
		common.JSON(w, http.StatusAccepted, map[string]any{
			"requiresAction":    true,
			"continuationToken": res.ContinuationToken,
		})
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"order": toOrderResponse(res.Order)})
}

// PreviewTotals handles GET /api/v1/cart/totals.
func (h *Handlers) PreviewTotals(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}
	totals, err := h.Service.PreviewTotals(r.Context(), userID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, totals)
}

func toOrderResponse(v *OrderView) orderResponse {
	resp := orderResponse{
		ID:                v.Order.ID,
		Status:            v.Order.Status,
		TotalAmount:       v.Order.TotalAmount.StringFixed(2),
		TotalCarbon:       v.Order.TotalCarbon.StringFixed(2),
		DiscountCode:      v.Order.DiscountCode,
		DiscountAmount:    v.Breakdown.DiscountAmount.StringFixed(2),
		EcoPointsRedeemed: v.Order.EcoPointsRedeemed,
		EcoPointsAmount:   v.Order.EcoPointsAmount.StringFixed(2),
		ShippingCost:      v.Order.ShippingCost.StringFixed(2),
		TaxAmount:         v.Order.TaxAmount.StringFixed(2),
		ShippingAddress:   v.Order.ShippingAddress,
		PointsEarned:      v.PointsEarned,
	}
	for _, line := range v.Items {
		resp.Items = append(resp.Items, toItemResponse(line))
	}
	return resp
}

func toItemResponse(line repo.CartLine) orderItemResponse {
	return orderItemResponse{
		ProductID:   line.ProductID,
		ProductName: line.ProductName,
		Quantity:    line.Quantity,
		Price:       line.UnitPrice.StringFixed(2),
		Carbon:      line.UnitCarbon.StringFixed(2),
	}
}
