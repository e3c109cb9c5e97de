// Package user exposes the address book.
package user

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ecobazaarx/backend-eco/internal/common"
	"github.com/ecobazaarx/backend-eco/internal/repo"
)

// Handlers serves address-book CRUD.
type Handlers struct {
	Store *repo.Store
}

type addressRequest struct {
	Label      *string `json:"label,omitempty" validate:"omitempty,max=50"`
	Street     string  `json:"street" validate:"required,max=200"`
	City       string  `json:"city" validate:"required,max=100"`
	State      string  `json:"state" validate:"required,max=100"`
	PostalCode string  `json:"postalCode" validate:"required,max=20"`
	Country    string  `json:"country" validate:"required,max=100"`
	IsDefault  bool    `json:"isDefault"`
}

type addressResponse struct {
	ID         string  `json:"id"`
	Label      *string `json:"label,omitempty"`
	Street     string  `json:"street"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postalCode"`
	Country    string  `json:"country"`
	IsDefault  bool    `json:"isDefault"`
}

// ListAddresses handles GET /api/v1/addresses.
func (h *Handlers) ListAddresses(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}
	addrs, err := h.Store.Q().ListAddresses(r.Context(), userID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	out := make([]addressResponse, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, toAddressResponse(a))
	}
	common.JSON(w, http.StatusOK, map[string]any{"addresses": out})
}

// CreateAddress handles POST /api/v1/addresses.
func (h *Handlers) CreateAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}
	var req addressRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RenderError(w, err)
		return
	}
	addr, err := h.Store.Q().CreateAddress(r.Context(), repo.Address{
		UserID:     userID,
		Label:      req.Label,
		Street:     req.Street,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		IsDefault:  req.IsDefault,
	})
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"address": toAddressResponse(addr)})
}

// UpdateAddress handles PUT /api/v1/addresses/{addressID}.
func (h *Handlers) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}
	var req addressRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RenderError(w, err)
		return
	}
	addr, err := h.Store.Q().UpdateAddress(r.Context(), repo.Address{
		ID:         chi.URLParam(r, "addressID"),
		UserID:     userID,
		Label:      req.Label,
		Street:     req.Street,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		IsDefault:  req.IsDefault,
	})
	if err != nil {
		common.RenderError(w, mapAddressErr(err))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"address": toAddressResponse(addr)})
}

// DeleteAddress handles DELETE /api/v1/addresses/{addressID}.
func (h *Handlers) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}
	if err := h.Store.Q().DeleteAddress(r.Context(), chi.URLParam(r, "addressID"), userID); err != nil {
		common.RenderError(w, mapAddressErr(err))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"ok": true})
}

func mapAddressErr(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return common.NotFound("address_not_found", "address not found", err)
	}
	return err
}

func toAddressResponse(a repo.Address) addressResponse {
	return addressResponse{
		ID:         a.ID,
		Label:      a.Label,
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		IsDefault:  a.IsDefault,
	}
}
