package courses

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"classtrack/internal/apperr"
	"classtrack/internal/auth"
	"classtrack/internal/httpx"
)

// Handler exposes course management over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler creates the courses handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts course routes on an authenticated router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	staff := auth.RequireRole(auth.RoleLecturer, auth.RoleAdmin)

	c := rg.Group("/courses")
	c.POST("", staff, h.Create)
	c.GET("", staff, h.List)
	c.GET("/:id", h.Get)
	c.POST("/:id/schedules", staff, h.AddSchedule)
	c.GET("/:id/schedules", h.Schedules)
}

// Create registers a course.
func (h *Handler) Create(c *gin.Context) {
	callerID, claims, ok := caller(c)
	if !ok {
		return
	}
	var req CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	course, err := h.svc.Create(c.Request.Context(), callerID, claims.Role, req)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.Created(c, course)
}

// Get returns one course.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpx.FailStatus(c, http.StatusBadRequest, "invalid id")
		return
	}
	course, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, course)
}

// List returns the caller's courses (all courses for admins).
func (h *Handler) List(c *gin.Context) {
	callerID, claims, ok := caller(c)
	if !ok {
		return
	}
	list, err := h.svc.List(c.Request.Context(), callerID, claims.Role)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, list)
}

// AddSchedule attaches a weekly slot to a course.
func (h *Handler) AddSchedule(c *gin.Context) {
	callerID, claims, ok := caller(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpx.FailStatus(c, http.StatusBadRequest, "invalid id")
		return
	}
	var req AddScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	schedule, err := h.svc.AddSchedule(c.Request.Context(), callerID, claims.Role, id, req)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.Created(c, schedule)
}

// Schedules lists a course's weekly slots.
func (h *Handler) Schedules(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpx.FailStatus(c, http.StatusBadRequest, "invalid id")
		return
	}
	list, err := h.svc.Schedules(c.Request.Context(), id)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, list)
}

func caller(c *gin.Context) (uuid.UUID, auth.Claims, bool) {
	claims, ok := auth.CallerClaims(c)
	if !ok {
		httpx.Fail(c, apperr.New(apperr.Unauthorized, "missing bearer token"))
		return uuid.Nil, auth.Claims{}, false
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		httpx.Fail(c, apperr.New(apperr.Unauthorized, "invalid caller identity"))
		return uuid.Nil, auth.Claims{}, false
	}
	return id, claims, true
}
