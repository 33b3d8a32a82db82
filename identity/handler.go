package identity

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/gotasks/errors"
	"github.com/kbukum/gotasks/logger"
	"github.com/kbukum/gotasks/server"
	"github.com/kbukum/gotasks/server/middleware"
	"github.com/kbukum/gotasks/validation"
)

// PublicPaths bypass the bearer gate. The internal lookup is guarded by
// the service credential instead.
var PublicPaths = []string{
	"/auth/login",
	"/auth/register",
	"/auth/check-*",
	"/internal/*",
	"/health",
	"/info",
}

// Handler exposes Service over HTTP.
type Handler struct {
	svc        *Service
	log        *logger.Logger
	serviceKey string
}

// NewHandler returns a Handler. serviceKey guards /internal routes; empty
// leaves them open to the network.
func NewHandler(svc *Service, serviceKey string, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{svc: svc, log: log.WithComponent("identity-http"), serviceKey: serviceKey}
}

// RegisterRoutes mounts the identity routes on r.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	authGroup := r.Group("/auth")
	authGroup.POST("/login", h.login)
	authGroup.POST("/register", h.register)
	authGroup.GET("/check-username", h.checkUsername)
	authGroup.GET("/check-email", h.checkEmail)

	users := r.Group("/users")
	users.GET("/me", h.me)
	users.GET("/:id", h.getUser)

	internal := r.Group("/internal", middleware.RequireServiceKey(h.serviceKey, h.log))
	internal.GET("/users/:id", h.internalUser)
}

func (h *Handler) login(c *gin.Context) {
	var req LoginRequest
	if !server.BindJSON(c, &req) {
		return
	}
	if err := validation.Validate(req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	result, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, result)
}

func (h *Handler) register(c *gin.Context) {
	var req RegisterRequest
	if !server.BindJSON(c, &req) {
		return
	}
	summary, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, summary)
}

func (h *Handler) checkUsername(c *gin.Context) {
	available, err := h.svc.UsernameAvailable(c.Request.Context(), c.Query("username"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, Availability{Available: available})
}

func (h *Handler) checkEmail(c *gin.Context) {
	available, err := h.svc.EmailAvailable(c.Request.Context(), c.Query("email"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, Availability{Available: available})
}

func (h *Handler) me(c *gin.Context) {
	p, ok := server.Principal(c, h.log)
	if !ok {
		return
	}
	summary, err := h.svc.Me(c.Request.Context(), p)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, summary)
}

func (h *Handler) getUser(c *gin.Context) {
	p, ok := server.Principal(c, h.log)
	if !ok {
		return
	}
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	summary, err := h.svc.GetUser(c.Request.Context(), p, id)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, summary)
}

func (h *Handler) internalUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	summary, err := h.svc.LookupInternal(c.Request.Context(), id)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, summary)
}

func userIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		server.RespondWithError(c, apperrors.InvalidInput("id", "id must be a positive integer"))
		return 0, false
	}
	return id, true
}
