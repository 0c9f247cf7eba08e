package users

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"classtrack/internal/apperr"
	"classtrack/internal/auth"
	"classtrack/internal/httpx"
)

// Handler exposes signup, login and user lookup over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler creates the users handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterPublic mounts the unauthenticated auth routes.
func (h *Handler) RegisterPublic(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/signup", h.SignUp)
	a.POST("/login", h.Login)
	a.POST("/refresh", h.Refresh)
}

// Register mounts authenticated user routes.
func (h *Handler) Register(rg *gin.RouterGroup) {
	u := rg.Group("/users")
	u.GET("/me", h.Me)
	u.GET("", auth.RequireRole(auth.RoleAdmin), h.List)
	u.GET("/:id", auth.RequireRole(auth.RoleLecturer, auth.RoleAdmin), h.Get)
}

// SignUp registers an account; the role field selects the profile shape.
func (h *Handler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := h.svc.SignUp(c.Request.Context(), req)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.Created(c, resp)
}

// Login authenticates and returns a token pair.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, resp)
}

// Refresh trades a refresh token for a fresh pair.
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, resp)
}

// Me returns the calling user.
func (h *Handler) Me(c *gin.Context) {
	id, err := uuid.Parse(auth.CallerID(c))
	if err != nil {
		httpx.Fail(c, apperr.New(apperr.Unauthorized, "invalid caller identity"))
		return
	}
	user, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, user)
}

// Get returns one user by id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpx.FailStatus(c, http.StatusBadRequest, "invalid id")
		return
	}
	user, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, user)
}

// List returns users of the role named by the role query parameter.
func (h *Handler) List(c *gin.Context) {
	role := c.DefaultQuery("role", auth.RoleStudent)
	list, err := h.svc.ListByRole(c.Request.Context(), role)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, list)
}
