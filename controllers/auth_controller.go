package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"room-booking/middleware"
	"room-booking/models"
	"room-booking/policy"
	"room-booking/services"
	"room-booking/utils"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Register(ctx context.Context, email, password, fullName string) (*services.AuthResult, error)
	Logout(ctx context.Context, actor policy.Actor) error
}

type registerPayload struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
}

// loginPayload accepts "username" as an alias of "email".
type loginPayload struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type profile struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type authResponse struct {
	User  profile `json:"user"`
	Token string  `json:"token"`
}

func newAuthResponse(token string, u *models.User) authResponse {
	return authResponse{
		User:  profile{ID: u.ID, Username: u.Email, Email: u.Email, FullName: u.FullName},
		Token: token,
	}
}

type AuthController struct {
	Auth AuthService
}

func NewAuthController(auth AuthService) *AuthController {
	return &AuthController{Auth: auth}
}

// Register (POST /api/register)
func (ctrl *AuthController) Register(c *gin.Context) {
	var p registerPayload
	if !bindJSON(c, &p) {
		return
	}
	res, err := ctrl.Auth.Register(c.Request.Context(), p.Email, p.Password, p.FullName)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, newAuthResponse(res.Token, res.User))
}

// Login (POST /api/login)
func (ctrl *AuthController) Login(c *gin.Context) {
	var p loginPayload
	if !bindJSON(c, &p) {
		return
	}
	email := strings.TrimSpace(p.Email)
	if email == "" {
		email = strings.TrimSpace(p.Username)
	}
	res, err := ctrl.Auth.Login(c.Request.Context(), email, p.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, newAuthResponse(res.Token, res.User))
}

// Logout (POST /api/logout)
func (ctrl *AuthController) Logout(c *gin.Context) {
	if err := ctrl.Auth.Logout(c.Request.Context(), middleware.ActorFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
