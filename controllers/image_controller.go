package controllers

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"room-booking/middleware"
	"room-booking/models"
	"room-booking/policy"
	"room-booking/services"
	"room-booking/storage"
	"room-booking/utils"
)

type ImageService interface {
	ListImages(ctx context.Context, roomID uint) ([]models.RoomImage, error)
	AddImage(ctx context.Context, actor policy.Actor, roomID uint, up services.ImageUpload) (*models.RoomImage, error)
	DeleteImage(ctx context.Context, actor policy.Actor, roomID, imageID uint) error
}

// imagePayload is the JSON form of an upload: a data URI or bare base64.
type imagePayload struct {
	Image   string  `json:"image" binding:"required"`
	Caption *string `json:"caption"`
}

type ImageController struct {
	Images ImageService
}

func NewImageController(images ImageService) *ImageController {
	return &ImageController{Images: images}
}

// GET /api/rooms/:id/images
func (ctrl *ImageController) GetImages(c *gin.Context) {
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	images, err := ctrl.Images.ListImages(c.Request.Context(), roomID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, images)
}

// POST /api/rooms/:id/images
//
// Accepts multipart/form-data with an "image" file and optional "caption",
// or JSON {"image": "data:image/png;base64,...", "caption": "..."}.
func (ctrl *ImageController) UploadImage(c *gin.Context) {
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var (
		up  services.ImageUpload
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		up, err = readMultipartImage(c)
	} else {
		var p imagePayload
		if !bindJSON(c, &p) {
			return
		}
		up, err = readDataURIImage(p)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	img, err := ctrl.Images.AddImage(c.Request.Context(), middleware.ActorFrom(c), roomID, up)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, img)
}

// DELETE /api/rooms/:id/images/:imageId
func (ctrl *ImageController) DeleteImage(c *gin.Context) {
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	imageID, ok := paramID(c, "imageId")
	if !ok {
		return
	}
	if err := ctrl.Images.DeleteImage(c.Request.Context(), middleware.ActorFrom(c), roomID, imageID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func readMultipartImage(c *gin.Context) (services.ImageUpload, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return services.ImageUpload{}, &services.ValidationError{Field: "image", Message: "no file was submitted"}
	}
	f, err := fh.Open()
	if err != nil {
		return services.ImageUpload{}, err
	}
	defer f.Close()

	// one byte past the limit so oversize files are detected
	data, err := io.ReadAll(io.LimitReader(f, services.MaxImageBytes+1))
	if err != nil {
		return services.ImageUpload{}, err
	}

	up := services.ImageUpload{ContentType: fh.Header.Get("Content-Type"), Data: data}
	if _, ok := storage.ExtensionFor(up.ContentType); !ok {
		up.ContentType = http.DetectContentType(data)
	}
	if caption, ok := c.GetPostForm("caption"); ok {
		up.Caption = &caption
	}
	return up, nil
}

func readDataURIImage(p imagePayload) (services.ImageUpload, error) {
	data, contentType, err := storage.DecodeDataURI(p.Image)
	if err != nil {
		return services.ImageUpload{}, &services.ValidationError{Field: "image", Message: err.Error()}
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return services.ImageUpload{ContentType: contentType, Data: data, Caption: p.Caption}, nil
}
