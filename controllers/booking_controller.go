package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"room-booking/middleware"
	"room-booking/models"
	"room-booking/policy"
	"room-booking/services"
	"room-booking/utils"
)

type BookingService interface {
	List(ctx context.Context, actor policy.Actor) ([]models.Booking, error)
	Create(ctx context.Context, actor policy.Actor, in services.BookingInput) (*models.Booking, error)
	Get(ctx context.Context, actor policy.Actor, id uint) (*models.Booking, error)
	Update(ctx context.Context, actor policy.Actor, id uint, in services.BookingInput, partial bool) (*models.Booking, error)
	Delete(ctx context.Context, actor policy.Actor, id uint) error
}

// bookingPayload has no owner field: the owner is always the caller, so a
// "user" sent by the client is dropped during decoding.
type bookingPayload struct {
	Room   *uint   `json:"room"`
	RoomID *uint   `json:"room_id"`
	Date   *string `json:"date"`
}

func (p bookingPayload) input() services.BookingInput {
	room := p.Room
	if room == nil {
		room = p.RoomID
	}
	return services.BookingInput{RoomID: room, Date: p.Date}
}

type bookingResponse struct {
	ID        uint      `json:"id"`
	Room      uint      `json:"room"`
	User      uint      `json:"user"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toBookingResponse(b *models.Booking) bookingResponse {
	return bookingResponse{
		ID:        b.ID,
		Room:      b.RoomID,
		User:      b.UserID,
		Date:      b.Day(),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

type BookingController struct {
	Bookings BookingService
}

func NewBookingController(bookings BookingService) *BookingController {
	return &BookingController{Bookings: bookings}
}

// GET /api/bookings
func (ctrl *BookingController) GetBookings(c *gin.Context) {
	list, err := ctrl.Bookings.List(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]bookingResponse, 0, len(list))
	for i := range list {
		out = append(out, toBookingResponse(&list[i]))
	}
	utils.JSONSuccess(c, http.StatusOK, out)
}

// POST /api/bookings
func (ctrl *BookingController) CreateBooking(c *gin.Context) {
	var p bookingPayload
	if !bindJSON(c, &p) {
		return
	}
	b, err := ctrl.Bookings.Create(c.Request.Context(), middleware.ActorFrom(c), p.input())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, toBookingResponse(b))
}

// GET /api/bookings/:id
func (ctrl *BookingController) GetBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	b, err := ctrl.Bookings.Get(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, toBookingResponse(b))
}

// PUT / PATCH /api/bookings/:id
func (ctrl *BookingController) UpdateBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var p bookingPayload
	if !bindJSON(c, &p) {
		return
	}
	partial := c.Request.Method == http.MethodPatch
	b, err := ctrl.Bookings.Update(c.Request.Context(), middleware.ActorFrom(c), id, p.input(), partial)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, toBookingResponse(b))
}

// DELETE /api/bookings/:id
func (ctrl *BookingController) DeleteBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ctrl.Bookings.Delete(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
