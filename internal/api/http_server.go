package api

import (
	"net/http"
	"time"

	"wardrobe/internal/auth"
	"wardrobe/internal/config"
	"wardrobe/internal/model"
	"wardrobe/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPHandler HTTP 请求处理器
type HTTPHandler struct {
	cfg         config.Config
	repo        model.Repository
	authManager *auth.Manager

	// 服务层
	wardrobeService *service.WardrobeService
}

// NewHTTPHandler 创建 HTTP 处理器实例
func NewHTTPHandler(cfg config.Config, repo model.Repository, svc *service.WardrobeService) (*HTTPHandler, error) {
	expiry := time.Duration(cfg.JWTExpirationMinutes) * time.Minute
	authManager, err := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, expiry)
	if err != nil {
		return nil, err
	}

	return &HTTPHandler{
		cfg:             cfg,
		repo:            repo,
		authManager:     authManager,
		wardrobeService: svc,
	}, nil
}

// RegisterRoutes 注册全部业务路由
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Index)
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/upload", h.AuthMiddleware(), h.Upload)
	r.GET("/mix-match", h.AuthMiddleware(), h.MixMatch)
	r.GET("/outfits/:number", h.AuthMiddleware(), h.GetOutfits)

	apiGroup := r.Group("/api")

	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.GET("/me", h.AuthMiddleware(), h.Me)

	protected := apiGroup.Group("")
	protected.Use(h.AuthMiddleware())
	protected.GET("/clothes", h.ListClothes)
	protected.GET("/outfits", h.ListOutfitSets)

	r.NoRoute(func(c *gin.Context) {
		NotFound(c, ErrCodeNotFound, "route not found")
	})
}

// Index 健康检查，保持与旧客户端一致的响应格式
func (h *HTTPHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": gin.H{"code": http.StatusOK, "message": "Success"},
		"data":   "Hello World",
	})
}
