package attendance

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"classtrack/internal/apperr"
	"classtrack/internal/auth"
	"classtrack/internal/httpx"
)

// Handler exposes the attendance service over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler creates the attendance handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts attendance routes on an authenticated router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	lecturer := auth.RequireRole(auth.RoleLecturer)
	student := auth.RequireRole(auth.RoleStudent)
	staff := auth.RequireRole(auth.RoleLecturer, auth.RoleAdmin)

	att := rg.Group("/attendance")
	att.POST("/sessions", lecturer, h.CreateSession)
	att.GET("/sessions/lecturer/active", lecturer, h.ActiveSessions)
	att.GET("/sessions/course/:courseId", h.SessionsForCourse)
	att.GET("/sessions/code/:code", h.SessionByCode)
	att.GET("/sessions/:id", h.SessionByID)
	att.GET("/sessions/:id/qr", h.SessionQR)
	att.PUT("/sessions/:id/extend", lecturer, h.ExtendSession)
	att.POST("/mark", student, h.Mark)
	att.POST("/manual", staff, h.ManualMark)
	att.GET("/student/course/:courseId", student, h.OwnAttendance)
	att.GET("/student/:studentId/course/:courseId", staff, h.StudentAttendance)
	att.GET("/session/:sessionId", staff, h.SessionAttendance)
	att.GET("/course/:courseId", staff, h.CourseAttendance)
	att.PUT("/:id/status/:status", staff, h.UpdateStatus)
}

// CreateSession opens a session for a course the caller lectures.
func (h *Handler) CreateSession(c *gin.Context) {
	lecturerID, ok := callerUUID(c)
	if !ok {
		return
	}
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	session, err := h.svc.CreateSession(c.Request.Context(), lecturerID, req)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.Created(c, session)
}

// SessionByID returns one session.
func (h *Handler) SessionByID(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	session, err := h.svc.SessionByID(c.Request.Context(), id)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, session)
}

// SessionByCode returns the session a code points at.
func (h *Handler) SessionByCode(c *gin.Context) {
	session, err := h.svc.SessionByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, session)
}

// SessionQR streams the session code as a PNG QR image.
func (h *Handler) SessionQR(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	png, err := h.svc.QRCodeForSession(c.Request.Context(), id, 300)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// ExtendSession pushes out a live session's expiry.
func (h *Handler) ExtendSession(c *gin.Context) {
	lecturerID, ok := callerUUID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req ExtendSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	session, err := h.svc.ExtendSession(c.Request.Context(), lecturerID, id, req)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, session)
}

// ActiveSessions lists the caller's unexpired sessions.
func (h *Handler) ActiveSessions(c *gin.Context) {
	lecturerID, ok := callerUUID(c)
	if !ok {
		return
	}
	sessions, err := h.svc.ActiveSessionsForLecturer(c.Request.Context(), lecturerID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, sessions)
}

// SessionsForCourse lists every session of a course.
func (h *Handler) SessionsForCourse(c *gin.Context) {
	courseID, ok := pathUUID(c, "courseId")
	if !ok {
		return
	}
	sessions, err := h.svc.SessionsForCourse(c.Request.Context(), courseID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, sessions)
}

// Mark checks the caller in against a session code.
func (h *Handler) Mark(c *gin.Context) {
	studentID, ok := callerUUID(c)
	if !ok {
		return
	}
	var req MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	record, err := h.svc.MarkAttendance(c.Request.Context(), studentID, req)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.Created(c, record)
}

// ManualMark records attendance without a session on lecturer authority.
func (h *Handler) ManualMark(c *gin.Context) {
	callerID, ok := callerUUID(c)
	if !ok {
		return
	}
	claims, _ := auth.CallerClaims(c)
	var req ManualMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	record, err := h.svc.ManualMark(c.Request.Context(), callerID, claims.Role, req)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.Created(c, record)
}

// OwnAttendance lists the calling student's records for a course.
func (h *Handler) OwnAttendance(c *gin.Context) {
	studentID, ok := callerUUID(c)
	if !ok {
		return
	}
	courseID, ok := pathUUID(c, "courseId")
	if !ok {
		return
	}
	records, err := h.svc.AttendanceForStudent(c.Request.Context(), studentID, courseID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, records)
}

// StudentAttendance lists a named student's records for a course.
func (h *Handler) StudentAttendance(c *gin.Context) {
	studentID, ok := pathUUID(c, "studentId")
	if !ok {
		return
	}
	courseID, ok := pathUUID(c, "courseId")
	if !ok {
		return
	}
	records, err := h.svc.AttendanceForStudent(c.Request.Context(), studentID, courseID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, records)
}

// SessionAttendance lists records for one session.
func (h *Handler) SessionAttendance(c *gin.Context) {
	sessionID, ok := pathUUID(c, "sessionId")
	if !ok {
		return
	}
	records, err := h.svc.AttendanceForSession(c.Request.Context(), sessionID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, records)
}

// CourseAttendance lists records for a course within an optional
// fromDate/toDate range (RFC 3339).
func (h *Handler) CourseAttendance(c *gin.Context) {
	courseID, ok := pathUUID(c, "courseId")
	if !ok {
		return
	}
	from, ok := queryTime(c, "fromDate")
	if !ok {
		return
	}
	to, ok := queryTime(c, "toDate")
	if !ok {
		return
	}
	records, err := h.svc.AttendanceForCourse(c.Request.Context(), courseID, from, to)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, records)
}

// UpdateStatus overrides a record's status.
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	status, err := ParseStatus(c.Param("status"))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	record, err := h.svc.UpdateStatus(c.Request.Context(), id, status)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, record)
}

func callerUUID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(auth.CallerID(c))
	if err != nil {
		httpx.Fail(c, apperr.New(apperr.Unauthorized, "invalid caller identity"))
		return uuid.Nil, false
	}
	return id, true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httpx.FailStatus(c, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func queryTime(c *gin.Context, name string) (*time.Time, bool) {
	val := c.Query(name)
	if val == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		httpx.FailStatus(c, http.StatusBadRequest, "invalid "+name)
		return nil, false
	}
	return &t, true
}
