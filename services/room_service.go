package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"room-booking/models"
	"room-booking/policy"
	"room-booking/storage"
)

const maxRoomNameLen = 100

// RoomInput carries room fields from a request. Nil means "not supplied".
type RoomInput struct {
	Name          *string
	Category      *string
	PricePerNight *int
	Currency      *string
	MaxOccupancy  *int
	Description   *string
}

// RoomService is the room catalog.
type RoomService struct {
	DB     *gorm.DB
	Images storage.ImageStore
	Log    *slog.Logger
}

func NewRoomService(db *gorm.DB, images storage.ImageStore, log *slog.Logger) *RoomService {
	return &RoomService{DB: db, Images: images, Log: log}
}

var roomResource = policy.Resource{Kind: "room"}

// List returns every room with its images, ordered by id.
func (s *RoomService) List(ctx context.Context) ([]models.Room, error) {
	rooms := []models.Room{}
	err := s.DB.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Order("id").
		Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

func (s *RoomService) Get(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	err := s.DB.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("id = ?", id).
		Take(&room).Error
	if err != nil {
		return nil, notFoundOr(err, "get room")
	}
	return &room, nil
}

// Create adds a room. Only superusers may write the catalog.
func (s *RoomService) Create(ctx context.Context, actor policy.Actor, in RoomInput) (*models.Room, error) {
	if err := authorize(policy.Rooms, actor, policy.Write, roomResource); err != nil {
		return nil, err
	}

	room := models.Room{
		PricePerNight: models.DefaultPricePerNight,
		Currency:      models.DefaultCurrency,
		MaxOccupancy:  models.DefaultMaxOccupancy,
	}
	if err := in.requireFull(); err != nil {
		return nil, err
	}
	in.applyTo(&room)
	if err := validateRoom(&room); err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).Omit("Images").Create(&room).Error; err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	return &room, nil
}

// Update replaces (partial=false) or patches (partial=true) a room.
func (s *RoomService) Update(ctx context.Context, actor policy.Actor, id uint, in RoomInput, partial bool) (*models.Room, error) {
	if err := authorize(policy.Rooms, actor, policy.Write, roomResource); err != nil {
		return nil, err
	}
	if !partial {
		if err := in.requireFull(); err != nil {
			return nil, err
		}
	}

	var room models.Room
	if err := s.DB.WithContext(ctx).Where("id = ?", id).Take(&room).Error; err != nil {
		return nil, notFoundOr(err, "get room")
	}
	in.applyTo(&room)
	if err := validateRoom(&room); err != nil {
		return nil, err
	}

	err := s.DB.WithContext(ctx).Model(&room).
		Select("name", "category", "price_per_night", "currency", "max_occupancy", "description").
		Updates(&room).Error
	if err != nil {
		return nil, fmt.Errorf("update room: %w", err)
	}
	return &room, nil
}

// Delete removes a room. Images and bookings go with it through the
// foreign keys; stored image files are removed afterwards.
func (s *RoomService) Delete(ctx context.Context, actor policy.Actor, id uint) error {
	if err := authorize(policy.Rooms, actor, policy.Write, roomResource); err != nil {
		return err
	}

	var images []models.RoomImage
	if err := s.DB.WithContext(ctx).Where("room_id = ?", id).Find(&images).Error; err != nil {
		return fmt.Errorf("list room images: %w", err)
	}

	res := s.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Room{})
	if res.Error != nil {
		return fmt.Errorf("delete room: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	for _, img := range images {
		removeBlob(ctx, s.Images, s.Log, img.StorageKey)
	}
	return nil
}

// ----------------------------------------------------
// Input handling
// ----------------------------------------------------

func (in RoomInput) requireFull() error {
	switch {
	case in.Name == nil:
		return invalid("name", "this field is required")
	case in.Category == nil:
		return invalid("category", "this field is required")
	case in.Description == nil:
		return invalid("description", "this field is required")
	}
	return nil
}

func (in RoomInput) applyTo(r *models.Room) {
	if in.Name != nil {
		r.Name = strings.TrimSpace(*in.Name)
	}
	if in.Category != nil {
		r.Category = strings.ToLower(strings.TrimSpace(*in.Category))
	}
	if in.PricePerNight != nil {
		r.PricePerNight = *in.PricePerNight
	}
	if in.Currency != nil {
		r.Currency = strings.ToUpper(strings.TrimSpace(*in.Currency))
	}
	if in.MaxOccupancy != nil {
		r.MaxOccupancy = *in.MaxOccupancy
	}
	if in.Description != nil {
		r.Description = *in.Description
	}
}

func validateRoom(r *models.Room) error {
	switch {
	case r.Name == "":
		return invalid("name", "this field may not be blank")
	case len([]rune(r.Name)) > maxRoomNameLen:
		return invalid("name", "ensure this field has no more than 100 characters")
	case !models.IsValidCategory(r.Category):
		return invalid("category", fmt.Sprintf("%q is not a valid choice", r.Category))
	case r.PricePerNight < 0:
		return invalid("price_per_night", "must be zero or greater")
	case !models.IsValidCurrency(r.Currency):
		return invalid("currency", fmt.Sprintf("%q is not a valid choice", r.Currency))
	case r.MaxOccupancy < 1:
		return invalid("max_occupancy", "must be at least 1")
	}
	return nil
}

func removeBlob(ctx context.Context, store storage.ImageStore, log *slog.Logger, key string) {
	if store == nil || key == "" {
		return
	}
	if err := store.Delete(ctx, key); err != nil && log != nil {
		log.WarnContext(ctx, "remove image blob", slog.String("key", key), slog.Any("error", err))
	}
}
