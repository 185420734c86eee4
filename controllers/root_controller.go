package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"room-booking/utils"
)

// APIRoot (GET /api/) lists the collection endpoints as absolute URLs.
func APIRoot(c *gin.Context) {
	base := baseURL(c.Request)
	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"rooms":          base + "/api/rooms",
		"users":          base + "/api/users",
		"bookings":       base + "/api/bookings",
		"occupied-dates": base + "/api/occupied-dates",
	})
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p == "http" || p == "https" {
		scheme = p
	}
	return scheme + "://" + r.Host
}
