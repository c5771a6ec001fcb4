package handler

import (
	"time"

	"github.com/dogdaycare/daycare-api/internal/core/domain"
)

type registerRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=64"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" form:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     form:"new_password"     validate:"required,min=6"`
}

type accountResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	AuthKind  string    `json:"auth_kind"`
	CreatedAt time.Time `json:"created_at"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toAccountResponse(a *domain.Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Username:  a.Username,
		AuthKind:  string(a.AuthKind),
		CreatedAt: a.CreatedAt,
	}
}
