package task

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/gotasks/errors"
	"github.com/kbukum/gotasks/logger"
	"github.com/kbukum/gotasks/server"
)

// PublicPaths bypass the bearer gate.
var PublicPaths = []string{"/health", "/info"}

// Handler exposes Service over HTTP.
type Handler struct {
	svc *Service
	log *logger.Logger
}

// NewHandler returns a Handler.
func NewHandler(svc *Service, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{svc: svc, log: log.WithComponent("task-http")}
}

// RegisterRoutes mounts the task routes on r.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	tasks := r.Group("/tasks")
	tasks.POST("", h.create)
	tasks.GET("", h.list)
	tasks.GET("/:id", h.get)
	tasks.PUT("/:id", h.update)
	tasks.DELETE("/:id", h.delete)
}

func (h *Handler) create(c *gin.Context) {
	p, ok := server.Principal(c, h.log)
	if !ok {
		return
	}
	var req CreateRequest
	if !server.BindJSON(c, &req) {
		return
	}
	t, err := h.svc.Create(c.Request.Context(), p, req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, t)
}

func (h *Handler) list(c *gin.Context) {
	p, ok := server.Principal(c, h.log)
	if !ok {
		return
	}
	var userID *int64
	if raw := c.Query("userId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			server.RespondWithError(c, apperrors.InvalidInput("userId", "userId must be an integer"))
			return
		}
		userID = &id
	}
	tasks, err := h.svc.List(c.Request.Context(), p, userID, c.Query("status"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, tasks)
}

func (h *Handler) get(c *gin.Context) {
	p, ok := server.Principal(c, h.log)
	if !ok {
		return
	}
	id, ok := taskIDParam(c)
	if !ok {
		return
	}
	t, err := h.svc.Get(c.Request.Context(), p, id)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, t)
}

func (h *Handler) update(c *gin.Context) {
	p, ok := server.Principal(c, h.log)
	if !ok {
		return
	}
	id, ok := taskIDParam(c)
	if !ok {
		return
	}
	var req UpdateRequest
	if !server.BindJSON(c, &req) {
		return
	}
	t, err := h.svc.Update(c.Request.Context(), p, id, req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, t)
}

func (h *Handler) delete(c *gin.Context) {
	p, ok := server.Principal(c, h.log)
	if !ok {
		return
	}
	id, ok := taskIDParam(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), p, id); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondNoContent(c)
}

func taskIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		server.RespondWithError(c, apperrors.InvalidInput("id", "id must be a positive integer"))
		return 0, false
	}
	return id, true
}
