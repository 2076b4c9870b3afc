package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// requestIDKey matches the key the RequestID middleware sets.
const requestIDKey = "request_id"

// Response unified JSON envelope. Code 0 means success; non-zero codes are
// five digits, the first two naming the module (13 crew, 15 requests ...).
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// Pagination paging metadata
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// PageData paged payload
type PageData struct {
	List       interface{} `json:"list"`
	Pagination Pagination  `json:"pagination"`
}

func write(c *gin.Context, status, code int, message string, data interface{}) {
	c.JSON(status, Response{
		Code:      code,
		Message:   message,
		Data:      data,
		RequestID: c.GetString(requestIDKey),
	})
}

// ── success ──

// OK 200
func OK(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, 0, "success", data)
}

// Created 201
func Created(c *gin.Context, data interface{}) {
	write(c, http.StatusCreated, 0, "success", data)
}

// Accepted 202
func Accepted(c *gin.Context, data interface{}) {
	write(c, http.StatusAccepted, 0, "accepted", data)
}

// OKPage 200 with pagination
func OKPage(c *gin.Context, list interface{}, total int64, page, pageSize int) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}
	pages := int((total + int64(pageSize) - 1) / int64(pageSize))
	write(c, http.StatusOK, 0, "success", PageData{
		List:       list,
		Pagination: Pagination{Page: page, PageSize: pageSize, Total: total, TotalPages: pages},
	})
}

// ── errors ──

// Error writes an error envelope.
func Error(c *gin.Context, httpStatus int, code int, message string) {
	write(c, httpStatus, code, message, nil)
}

// ErrorWithData error envelope that still carries a payload, e.g. the
// unchanged resource after a rejected state change
func ErrorWithData(c *gin.Context, httpStatus int, code int, message string, data interface{}) {
	write(c, httpStatus, code, message, data)
}

// BadRequest 400
func BadRequest(c *gin.Context, code int, message string) {
	Error(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, code int, message string) {
	Error(c, http.StatusUnauthorized, code, message)
}

// Forbidden 403
func Forbidden(c *gin.Context, code int, message string) {
	Error(c, http.StatusForbidden, code, message)
}

// NotFound 404
func NotFound(c *gin.Context, code int, message string) {
	Error(c, http.StatusNotFound, code, message)
}

// Conflict 409
func Conflict(c *gin.Context, code int, message string) {
	Error(c, http.StatusConflict, code, message)
}

// ServiceUnavailable 503 with Retry-After so gateways back off and resend.
func ServiceUnavailable(c *gin.Context, code int, message string) {
	c.Header("Retry-After", "1")
	Error(c, http.StatusServiceUnavailable, code, message)
}

// InternalError 500
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, 50000, "internal server error")
}
