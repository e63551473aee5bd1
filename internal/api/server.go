package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/YKarmar/ApplicationTracker/internal/models"
	"github.com/YKarmar/ApplicationTracker/internal/store"
)

// Store 是 HTTP 层依赖的存储操作
type Store interface {
	Ping(ctx context.Context) error

	ListApplications(ctx context.Context) ([]models.Application, error)
	GetApplication(ctx context.Context, id uint) (*models.Application, error)
	CreateApplication(ctx context.Context, in store.ApplicationInput) (*models.Application, error)
	UpdateApplication(ctx context.Context, id uint, in store.ApplicationInput) (*models.Application, error)
	PatchApplication(ctx context.Context, id uint, p store.ApplicationPatch) (*models.Application, error)
	MoveApplication(ctx context.Context, id uint, status models.Status) (*models.Application, error)
	AttachResume(ctx context.Context, id uint, resumeID *uint) (*models.Application, error)
	DeleteApplication(ctx context.Context, id uint) error

	ListResumes(ctx context.Context) ([]models.MasterResume, error)
	GetResume(ctx context.Context, id uint) (*models.MasterResume, error)
	CreateResume(ctx context.Context, name, content string) (*models.MasterResume, error)
	UpdateResume(ctx context.Context, id uint, p store.ResumePatch) (*models.MasterResume, error)
	CloneResume(ctx context.Context, id uint, name string) (*models.MasterResume, error)
	DeleteResume(ctx context.Context, id uint) error
}

type Server struct {
	store  Store
	logger *zap.Logger
}

func NewServer(st Store, logger *zap.Logger) *Server {
	return &Server{store: st, logger: logger}
}

// Router 注册全部路由
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(Recovery(s.logger), Logger(s.logger))

	r.GET("/", s.index)
	r.GET("/health", s.health)

	apps := r.Group("/api/applications")
	apps.GET("", s.listApplications)
	apps.POST("", s.createApplication)
	apps.GET("/:id", s.getApplication)
	apps.PUT("/:id", s.updateApplication)
	apps.PATCH("/:id", s.patchApplication)
	apps.PATCH("/:id/move", s.moveApplication)
	apps.POST("/:id/attach-resume", s.attachResume)
	apps.DELETE("/:id", s.deleteApplication)

	resumes := r.Group("/api/resumes")
	resumes.GET("", s.listResumes)
	resumes.POST("", s.createResume)
	resumes.GET("/:id", s.getResume)
	resumes.PATCH("/:id", s.updateResume)
	resumes.DELETE("/:id", s.deleteResume)
	resumes.POST("/:id/clone", s.cloneResume)

	return r
}

func (s *Server) index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Application Tracker API is running",
	})
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": "healthy"})
}

func (s *Server) listApplications(c *gin.Context) {
	apps, err := s.store.ListApplications(c.Request.Context())
	if err != nil {
		s.fail(c, err, "Failed to get all applications")
		return
	}
	ok(c, http.StatusOK, "All applications retrieved", "applications", apps)
}

func (s *Server) getApplication(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	app, err := s.store.GetApplication(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err, "Failed to get application")
		return
	}
	ok(c, http.StatusOK, "Application retrieved", "application", app)
}

func (s *Server) createApplication(c *gin.Context) {
	var in store.ApplicationInput
	if !bindJSON(c, &in) {
		return
	}
	app, err := s.store.CreateApplication(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err, "Failed to post application")
		return
	}
	ok(c, http.StatusCreated, "Application posted successfully", "application", app)
}

func (s *Server) updateApplication(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	var in store.ApplicationInput
	if !bindJSON(c, &in) {
		return
	}
	app, err := s.store.UpdateApplication(c.Request.Context(), id, in)
	if err != nil {
		s.fail(c, err, "Failed to update application")
		return
	}
	ok(c, http.StatusOK, "Application updated successfully", "application", app)
}

func (s *Server) patchApplication(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	var p store.ApplicationPatch
	if !bindJSON(c, &p) {
		return
	}
	app, err := s.store.PatchApplication(c.Request.Context(), id, p)
	if err != nil {
		s.fail(c, err, "Failed to update application")
		return
	}
	ok(c, http.StatusOK, "Application updated successfully", "application", app)
}

func (s *Server) moveApplication(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	var body struct {
		Status models.Status `json:"status"`
	}
	if !bindJSON(c, &body) {
		return
	}
	app, err := s.store.MoveApplication(c.Request.Context(), id, body.Status)
	if err != nil {
		s.fail(c, err, "Failed to update status of application")
		return
	}
	ok(c, http.StatusOK, "Application status updated successfully", "application", app)
}

func (s *Server) attachResume(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	var body struct {
		ResumeID *uint `json:"resume_id"`
	}
	if !bindJSON(c, &body) {
		return
	}
	app, err := s.store.AttachResume(c.Request.Context(), id, body.ResumeID)
	if err != nil {
		s.fail(c, err, "Failed to attach resume")
		return
	}
	ok(c, http.StatusOK, "Resume attached successfully", "application", app)
}

func (s *Server) deleteApplication(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	if err := s.store.DeleteApplication(c.Request.Context(), id); err != nil {
		s.fail(c, err, "Failed to delete application")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Application with id %d deleted successfully", id),
	})
}

func (s *Server) listResumes(c *gin.Context) {
	resumes, err := s.store.ListResumes(c.Request.Context())
	if err != nil {
		s.fail(c, err, "Failed to get resumes")
		return
	}
	ok(c, http.StatusOK, "All resumes retrieved", "resumes", resumes)
}

func (s *Server) getResume(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	resume, err := s.store.GetResume(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err, "Failed to get resume")
		return
	}
	ok(c, http.StatusOK, "Resume retrieved", "resume", resume)
}

type resumeBody struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

func (s *Server) createResume(c *gin.Context) {
	var body resumeBody
	if !bindJSON(c, &body) {
		return
	}
	resume, err := s.store.CreateResume(c.Request.Context(), body.Name, body.Content)
	if err != nil {
		s.fail(c, err, "Failed to create resume")
		return
	}
	ok(c, http.StatusCreated, "Resume created successfully", "resume", resume)
}

func (s *Server) updateResume(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	var p store.ResumePatch
	if !bindJSON(c, &p) {
		return
	}
	resume, err := s.store.UpdateResume(c.Request.Context(), id, p)
	if err != nil {
		s.fail(c, err, "Failed to update resume")
		return
	}
	ok(c, http.StatusOK, "Resume updated successfully", "resume", resume)
}

func (s *Server) cloneResume(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	// 请求体可省略
	var body struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	resume, err := s.store.CloneResume(c.Request.Context(), id, body.Name)
	if err != nil {
		s.fail(c, err, "Failed to clone resume")
		return
	}
	ok(c, http.StatusCreated, "Resume cloned successfully", "resume", resume)
}

func (s *Server) deleteResume(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	if err := s.store.DeleteResume(c.Request.Context(), id); err != nil {
		s.fail(c, err, "Failed to delete resume")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Resume with id %d deleted successfully", id),
	})
}

func ok(c *gin.Context, code int, message, key string, payload any) {
	c.JSON(code, gin.H{
		"success": true,
		"message": message,
		key:       payload,
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}

// fail 把存储层错误映射为 HTTP 状态码
func (s *Server) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
	case models.IsValidation(err):
		badRequest(c, err.Error())
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Server Error: " + msg})
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, fmt.Sprintf("invalid id %q", c.Param("id")))
		return 0, false
	}
	return uint(id), true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}
