package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"room-booking/events"
	"room-booking/models"
	"room-booking/policy"
)

// BookingInput carries booking fields from a request. Nil means "not supplied".
type BookingInput struct {
	RoomID *uint
	Date   *string
}

// BookingService is the booking ledger. The (room_id, date) unique index is
// the only thing that keeps two bookings off the same room and day; the
// service never checks availability before writing.
type BookingService struct {
	DB     *gorm.DB
	Events events.Publisher
	Log    *slog.Logger

	now func() time.Time
}

func NewBookingService(db *gorm.DB, pub events.Publisher, log *slog.Logger) *BookingService {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &BookingService{DB: db, Events: pub, Log: log, now: time.Now}
}

// Years a DATE column holds on every supported database.
const (
	minBookingYear = 1000
	maxBookingYear = 9999
)

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (datatypes.Date, error) {
	t, err := time.Parse(models.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return datatypes.Date{}, invalid("date", "date has wrong format; use YYYY-MM-DD")
	}
	if y := t.Year(); y < minBookingYear || y > maxBookingYear {
		return datatypes.Date{}, invalid("date", "date must be between 1000-01-01 and 9999-12-31")
	}
	return datatypes.Date(t), nil
}

// List returns every booking to staff and superusers, the actor's own
// bookings to other users, and nothing to anonymous callers.
func (s *BookingService) List(ctx context.Context, actor policy.Actor) ([]models.Booking, error) {
	bookings := []models.Booking{}
	if !actor.IsAuthenticated() {
		return bookings, nil
	}
	q := s.DB.WithContext(ctx).Order("id")
	if !policy.SeesAll(actor) {
		q = q.Where("user_id = ?", actor.UserID)
	}
	if err := q.Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

// Create books a room for one date on behalf of actor.
func (s *BookingService) Create(ctx context.Context, actor policy.Actor, in BookingInput) (*models.Booking, error) {
	if !actor.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	if in.RoomID == nil || *in.RoomID == 0 {
		return nil, invalid("room", "this field is required")
	}
	if in.Date == nil {
		return nil, invalid("date", "this field is required")
	}
	date, err := ParseDate(*in.Date)
	if err != nil {
		return nil, err
	}

	b := models.Booking{RoomID: *in.RoomID, UserID: actor.UserID, Date: date}
	if err := s.DB.WithContext(ctx).Create(&b).Error; err != nil {
		return nil, bookingWriteError(err, "create booking")
	}

	s.publish(ctx, events.BookingCreated, actor, &b)
	return &b, nil
}

// Get returns a booking the actor may see.
func (s *BookingService) Get(ctx context.Context, actor policy.Actor, id uint) (*models.Booking, error) {
	return s.load(ctx, actor, policy.Read, id)
}

// Update moves a booking to another room and/or date. The owner never changes.
func (s *BookingService) Update(ctx context.Context, actor policy.Actor, id uint, in BookingInput, partial bool) (*models.Booking, error) {
	if !partial {
		if in.RoomID == nil {
			return nil, invalid("room", "this field is required")
		}
		if in.Date == nil {
			return nil, invalid("date", "this field is required")
		}
	}

	b, err := s.load(ctx, actor, policy.Write, id)
	if err != nil {
		return nil, err
	}
	if in.RoomID != nil {
		if *in.RoomID == 0 {
			return nil, invalid("room", "this field is required")
		}
		b.RoomID = *in.RoomID
	}
	if in.Date != nil {
		date, err := ParseDate(*in.Date)
		if err != nil {
			return nil, err
		}
		b.Date = date
	}

	err = s.DB.WithContext(ctx).Model(b).Select("room_id", "date").Updates(b).Error
	if err != nil {
		return nil, bookingWriteError(err, "update booking")
	}

	s.publish(ctx, events.BookingUpdated, actor, b)
	return b, nil
}

func (s *BookingService) Delete(ctx context.Context, actor policy.Actor, id uint) error {
	b, err := s.load(ctx, actor, policy.Write, id)
	if err != nil {
		return err
	}
	res := s.DB.WithContext(ctx).Delete(&models.Booking{}, b.ID)
	if res.Error != nil {
		return fmt.Errorf("delete booking: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	s.publish(ctx, events.BookingDeleted, actor, b)
	return nil
}

// load fetches a booking and applies the detail policy. Anonymous callers
// are rejected before the lookup so they cannot probe which ids exist.
func (s *BookingService) load(ctx context.Context, actor policy.Actor, action policy.Action, id uint) (*models.Booking, error) {
	if !actor.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	var b models.Booking
	if err := s.DB.WithContext(ctx).Where("id = ?", id).Take(&b).Error; err != nil {
		return nil, notFoundOr(err, "get booking")
	}
	res := policy.Resource{Kind: "booking", OwnerID: b.UserID}
	if err := authorize(policy.BookingDetail, actor, action, res); err != nil {
		return nil, err
	}
	return &b, nil
}

func bookingWriteError(err error, op string) error {
	switch {
	case isDuplicateKey(err):
		return ErrDuplicateBooking
	case isForeignKeyViolation(err):
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *BookingService) publish(ctx context.Context, typ string, actor policy.Actor, b *models.Booking) {
	ev := events.BookingEvent{
		Type:       typ,
		BookingID:  b.ID,
		RoomID:     b.RoomID,
		UserID:     b.UserID,
		Date:       b.Day(),
		ActorID:    actor.UserID,
		OccurredAt: s.now().UTC(),
	}
	if err := s.Events.Publish(ctx, ev); err != nil && s.Log != nil {
		s.Log.WarnContext(ctx, "publish booking event",
			slog.String("type", typ),
			slog.Uint64("booking_id", uint64(b.ID)),
			slog.Any("error", err),
		)
	}
}
