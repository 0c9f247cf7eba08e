package assignments

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"classtrack/internal/apperr"
	"classtrack/internal/auth"
	"classtrack/internal/httpx"
)

// maxSubmissionBytes caps uploaded submission files at 10 MiB.
const maxSubmissionBytes = 10 << 20

// Handler exposes assignments and submissions over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler creates the assignments handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts assignment routes on an authenticated router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	staff := auth.RequireRole(auth.RoleLecturer, auth.RoleAdmin)
	student := auth.RequireRole(auth.RoleStudent)

	a := rg.Group("/assignments")
	a.POST("", staff, h.Create)
	a.GET("/course/:courseId", h.ForCourse)
	a.POST("/:id/submissions", student, h.Submit)
	a.GET("/:id/submissions", staff, h.ForAssignment)
	a.GET("/submissions/me", student, h.OwnSubmissions)
	a.PUT("/submissions/:id/grade", staff, h.Grade)
}

// Create sets an assignment on one of the caller's courses.
func (h *Handler) Create(c *gin.Context) {
	callerID, claims, ok := caller(c)
	if !ok {
		return
	}
	var req CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	assignment, err := h.svc.Create(c.Request.Context(), callerID, claims.Role, req)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.Created(c, assignment)
}

// ForCourse lists a course's assignments.
func (h *Handler) ForCourse(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		httpx.FailStatus(c, http.StatusBadRequest, "invalid course id")
		return
	}
	list, err := h.svc.ForCourse(c.Request.Context(), courseID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, list)
}

// Submit accepts a multipart upload under the "file" field.
func (h *Handler) Submit(c *gin.Context) {
	callerID, _, ok := caller(c)
	if !ok {
		return
	}
	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpx.FailStatus(c, http.StatusBadRequest, "invalid assignment id")
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		httpx.FailStatus(c, http.StatusBadRequest, "submission file is required")
		return
	}
	if fh.Size > maxSubmissionBytes {
		httpx.FailStatus(c, http.StatusBadRequest, "submission file too large")
		return
	}
	f, err := fh.Open()
	if err != nil {
		httpx.Fail(c, apperr.Wrap(apperr.Internal, "reading upload", err))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxSubmissionBytes))
	if err != nil {
		httpx.Fail(c, apperr.Wrap(apperr.Internal, "reading upload", err))
		return
	}
	sub, err := h.svc.Submit(c.Request.Context(), callerID, assignmentID, data, fh.Filename)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.Created(c, sub)
}

// ForAssignment lists submissions for grading.
func (h *Handler) ForAssignment(c *gin.Context) {
	callerID, claims, ok := caller(c)
	if !ok {
		return
	}
	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpx.FailStatus(c, http.StatusBadRequest, "invalid assignment id")
		return
	}
	list, err := h.svc.ForAssignment(c.Request.Context(), callerID, claims.Role, assignmentID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, list)
}

// OwnSubmissions lists the calling student's submissions.
func (h *Handler) OwnSubmissions(c *gin.Context) {
	callerID, _, ok := caller(c)
	if !ok {
		return
	}
	list, err := h.svc.OwnSubmissions(c.Request.Context(), callerID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, list)
}

// Grade scores a submission.
func (h *Handler) Grade(c *gin.Context) {
	callerID, claims, ok := caller(c)
	if !ok {
		return
	}
	submissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpx.FailStatus(c, http.StatusBadRequest, "invalid submission id")
		return
	}
	var req GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	sub, err := h.svc.Grade(c.Request.Context(), callerID, claims.Role, submissionID, req)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, sub)
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
