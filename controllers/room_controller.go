package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"room-booking/middleware"
	"room-booking/models"
	"room-booking/policy"
	"room-booking/services"
	"room-booking/utils"
)

type RoomService interface {
	List(ctx context.Context) ([]models.Room, error)
	Get(ctx context.Context, id uint) (*models.Room, error)
	Create(ctx context.Context, actor policy.Actor, in services.RoomInput) (*models.Room, error)
	Update(ctx context.Context, actor policy.Actor, id uint, in services.RoomInput, partial bool) (*models.Room, error)
	Delete(ctx context.Context, actor policy.Actor, id uint) error
}

type roomPayload struct {
	Name          *string `json:"name"`
	Category      *string `json:"category"`
	PricePerNight *int    `json:"price_per_night"`
	Currency      *string `json:"currency"`
	MaxOccupancy  *int    `json:"max_occupancy"`
	Description   *string `json:"description"`
}

func (p roomPayload) input() services.RoomInput {
	return services.RoomInput{
		Name:          p.Name,
		Category:      p.Category,
		PricePerNight: p.PricePerNight,
		Currency:      p.Currency,
		MaxOccupancy:  p.MaxOccupancy,
		Description:   p.Description,
	}
}

type RoomController struct {
	Rooms RoomService
}

func NewRoomController(rooms RoomService) *RoomController {
	return &RoomController{Rooms: rooms}
}

// ----------------------------------------------------
// GET /api/rooms
// ----------------------------------------------------

func (ctrl *RoomController) GetRooms(c *gin.Context) {
	rooms, err := ctrl.Rooms.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, rooms)
}

// ----------------------------------------------------
// GET /api/rooms/:id
// ----------------------------------------------------

func (ctrl *RoomController) GetRoom(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	room, err := ctrl.Rooms.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, room)
}

// ----------------------------------------------------
// POST /api/rooms
// ----------------------------------------------------

func (ctrl *RoomController) CreateRoom(c *gin.Context) {
	var p roomPayload
	if !bindJSON(c, &p) {
		return
	}
	room, err := ctrl.Rooms.Create(c.Request.Context(), middleware.ActorFrom(c), p.input())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, room)
}

// ----------------------------------------------------
// PUT / PATCH /api/rooms/:id
// ----------------------------------------------------

func (ctrl *RoomController) UpdateRoom(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var p roomPayload
	if !bindJSON(c, &p) {
		return
	}
	partial := c.Request.Method == http.MethodPatch
	room, err := ctrl.Rooms.Update(c.Request.Context(), middleware.ActorFrom(c), id, p.input(), partial)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, room)
}

// ----------------------------------------------------
// DELETE /api/rooms/:id
// ----------------------------------------------------

func (ctrl *RoomController) DeleteRoom(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ctrl.Rooms.Delete(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
