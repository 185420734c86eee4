package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"room-booking/middleware"
	"room-booking/models"
	"room-booking/policy"
	"room-booking/utils"
)

type UserService interface {
	List(ctx context.Context, actor policy.Actor) ([]models.User, error)
	Get(ctx context.Context, actor policy.Actor, id uint) (*models.User, error)
}

type UserController struct {
	Users UserService
}

func NewUserController(users UserService) *UserController {
	return &UserController{Users: users}
}

// GET /api/users
func (ctrl *UserController) GetUsers(c *gin.Context) {
	users, err := ctrl.Users.List(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, users)
}

// GET /api/users/:id
func (ctrl *UserController) GetUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	u, err := ctrl.Users.Get(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, u)
}
