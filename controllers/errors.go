package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"room-booking/services"
	"room-booking/utils"
)

func init() {
	// report json field names in binding errors
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// respondError maps a service error to its HTTP status and error code.
// Unknown errors are attached to the context for the request logger and
// answered with a generic 500.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.JSONFieldError(c, http.StatusBadRequest, "validation_error", verr.Field, verr.Message)
	case errors.Is(err, services.ErrNotFound):
		utils.JSONError(c, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, services.ErrForbidden):
		utils.JSONError(c, http.StatusForbidden, "forbidden", "you do not have permission to perform this action")
	case errors.Is(err, services.ErrUnauthenticated):
		c.Header("WWW-Authenticate", `Bearer realm="api"`)
		utils.JSONError(c, http.StatusUnauthorized, "unauthenticated", err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.JSONError(c, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, services.ErrDuplicateEmail):
		utils.JSONError(c, http.StatusConflict, "duplicate_email", err.Error())
	case errors.Is(err, services.ErrDuplicateBooking):
		utils.JSONError(c, http.StatusConflict, "duplicate_booking", err.Error())
	default:
		_ = c.Error(err)
		utils.JSONError(c, http.StatusInternalServerError, "internal", "internal server error")
	}
}

// bindJSON decodes the body into dst and answers 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, bindingError(err))
		return false
	}
	return true
}

func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		msg := "this field is required"
		switch fe.Tag() {
		case "required":
		case "email":
			msg = "enter a valid email address"
		default:
			msg = fmt.Sprintf("failed on the %q rule", fe.Tag())
		}
		return &services.ValidationError{Field: fe.Field(), Message: msg}
	}
	return &services.ValidationError{Message: "invalid request payload: " + err.Error()}
}

// paramID parses a positive numeric path parameter. Anything else is a 404,
// the same as an id that does not exist.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, services.ErrNotFound)
		return 0, false
	}
	return uint(id), true
}
