// Package httpx shapes every response into the uniform envelope
// {success, data, error} and translates apperr kinds to status codes.
package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"classtrack/internal/apperr"
)

// Envelope is the wire shape of every JSON response.
type Envelope struct {
	Success bool    `json:"success"`
	Data    any     `json:"data"`
	Error   *string `json:"error"`
}

// OK writes a 200 envelope.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 envelope.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Fail writes an error envelope with the status derived from err's kind.
// Internal errors get a generic message so persistence details never leak.
func Fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	c.JSON(status, Envelope{Success: false, Error: &msg})
}

// FailStatus writes an error envelope with an explicit status, for binding
// failures the error taxonomy never sees.
func FailStatus(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Success: false, Error: &message})
}
