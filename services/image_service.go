package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"room-booking/models"
	"room-booking/policy"
	"room-booking/storage"
)

const (
	MaxImageBytes    = 5 << 20
	maxCaptionLength = 255
)

// ImageUpload is a decoded image from a request.
type ImageUpload struct {
	ContentType string
	Data        []byte
	Caption     *string
}

// ImageService manages the images of a room.
type ImageService struct {
	DB    *gorm.DB
	Store storage.ImageStore
	Log   *slog.Logger
}

func NewImageService(db *gorm.DB, store storage.ImageStore, log *slog.Logger) *ImageService {
	return &ImageService{DB: db, Store: store, Log: log}
}

func (s *ImageService) roomExists(ctx context.Context, roomID uint) error {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&models.Room{}).Where("id = ?", roomID).Count(&n).Error; err != nil {
		return fmt.Errorf("check room: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListImages returns the images of a room, oldest first.
func (s *ImageService) ListImages(ctx context.Context, roomID uint) ([]models.RoomImage, error) {
	if err := s.roomExists(ctx, roomID); err != nil {
		return nil, err
	}
	images := []models.RoomImage{}
	if err := s.DB.WithContext(ctx).Where("room_id = ?", roomID).Order("id").Find(&images).Error; err != nil {
		return nil, fmt.Errorf("list room images: %w", err)
	}
	return images, nil
}

// AddImage stores the blob and records it against the room.
func (s *ImageService) AddImage(ctx context.Context, actor policy.Actor, roomID uint, up ImageUpload) (*models.RoomImage, error) {
	if err := authorize(policy.RoomImages, actor, policy.Write, roomResource); err != nil {
		return nil, err
	}

	ext, ok := storage.ExtensionFor(up.ContentType)
	if !ok {
		return nil, invalid("image", "unsupported image type; use jpeg, png, gif or webp")
	}
	if len(up.Data) == 0 {
		return nil, invalid("image", "the submitted file is empty")
	}
	if len(up.Data) > MaxImageBytes {
		return nil, invalid("image", "image is larger than 5 MiB")
	}
	var caption *string
	if up.Caption != nil {
		c := strings.TrimSpace(*up.Caption)
		if len([]rune(c)) > maxCaptionLength {
			return nil, invalid("caption", "ensure this field has no more than 255 characters")
		}
		caption = &c
	}

	if err := s.roomExists(ctx, roomID); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("rooms/%d/%s%s", roomID, uuid.NewString(), ext)
	url, err := s.Store.Put(ctx, key, strings.ToLower(up.ContentType), up.Data)
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	img := models.RoomImage{
		RoomID:      roomID,
		StorageKey:  key,
		URL:         url,
		ContentType: strings.ToLower(up.ContentType),
		Caption:     caption,
	}
	if err := s.DB.WithContext(ctx).Create(&img).Error; err != nil {
		removeBlob(ctx, s.Store, s.Log, key)
		if isForeignKeyViolation(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("create room image: %w", err)
	}
	return &img, nil
}

// DeleteImage removes one image of a room.
func (s *ImageService) DeleteImage(ctx context.Context, actor policy.Actor, roomID, imageID uint) error {
	if err := authorize(policy.RoomImages, actor, policy.Write, roomResource); err != nil {
		return err
	}

	var img models.RoomImage
	err := s.DB.WithContext(ctx).Where("id = ? AND room_id = ?", imageID, roomID).Take(&img).Error
	if err != nil {
		return notFoundOr(err, "get room image")
	}
	if err := s.DB.WithContext(ctx).Delete(&img).Error; err != nil {
		return fmt.Errorf("delete room image: %w", err)
	}
	removeBlob(ctx, s.Store, s.Log, img.StorageKey)
	return nil
}
