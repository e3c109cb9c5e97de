package auth

import (
	"net/http"
	"time"

	"github.com/ecobazaarx/backend-eco/internal/common"
	"github.com/ecobazaarx/backend-eco/internal/repo"
)

// Handlers exposes registration, login, and the profile endpoint.
type Handlers struct {
	Service *Service
}

type registerRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=100"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	ReferralCode string `json:"referralCode,omitempty" validate:"omitempty,max=32"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	Email                 string     `json:"email"`
	ReferralCode          *string    `json:"referralCode,omitempty"`
	EcoPoints             int        `json:"ecoPoints"`
	RankLevel             int        `json:"rankLevel"`
	RankLevelAchievedAt   *time.Time `json:"rankLevelAchievedAt,omitempty"`
	TotalOrderCount       int        `json:"totalOrderCount"`
	LifetimeTotalCarbon   string     `json:"lifetimeTotalCarbon"`
	LifetimeAverageCarbon string     `json:"lifetimeAverageCarbon"`
}

// Register handles POST /api/v1/auth/register.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RenderError(w, err)
		return
	}
	user, err := h.Service.Register(r.Context(), RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"user": toUserResponse(user)})
}

// Login handles POST /api/v1/auth/login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RenderError(w, err)
		return
	}
	token, user, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"accessToken": token,
		"user":        toUserResponse(user),
	})
}

// Me handles GET /api/v1/auth/me.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}
	user, err := h.Service.Store.Q().GetUserByID(r.Context(), userID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"user": toUserResponse(user)})
}

func toUserResponse(u repo.User) userResponse {
	return userResponse{
		ID:                    u.ID,
		Name:                  u.Name,
		Email:                 u.Email,
		ReferralCode:          u.ReferralCode,
		EcoPoints:             u.EcoPoints,
		RankLevel:             u.RankLevel,
		RankLevelAchievedAt:   u.RankLevelAchievedAt,
		TotalOrderCount:       u.TotalOrderCount,
		LifetimeTotalCarbon:   u.LifetimeTotalCarbon.StringFixed(4),
		LifetimeAverageCarbon: u.LifetimeAverageCarbon.StringFixed(4),
	}
}
