package utils

import "github.com/gin-gonic/gin"

// APIError is the body of the "error" member of a failed response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func JSONSuccess(c *gin.Context, code int, data interface{}) {
	c.JSON(code, gin.H{"success": true, "data": data})
}

func JSONError(c *gin.Context, code int, errCode, message string) {
	c.JSON(code, gin.H{"success": false, "error": APIError{Code: errCode, Message: message}})
}

// JSONFieldError reports a problem with one input field.
func JSONFieldError(c *gin.Context, code int, errCode, field, message string) {
	c.JSON(code, gin.H{"success": false, "error": APIError{Code: errCode, Message: message, Field: field}})
}

// AbortJSONError writes the error and stops the handler chain.
func AbortJSONError(c *gin.Context, code int, errCode, message string) {
	JSONError(c, code, errCode, message)
	c.Abort()
}
