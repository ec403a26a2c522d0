package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/crm-backend/internal/auth"
	"github.com/nekogravitycat/crm-backend/internal/contact"
	contactHttp "github.com/nekogravitycat/crm-backend/internal/contact/http"
	"github.com/nekogravitycat/crm-backend/internal/deal"
	dealHttp "github.com/nekogravitycat/crm-backend/internal/deal/http"
	"github.com/nekogravitycat/crm-backend/internal/health"
	"github.com/nekogravitycat/crm-backend/internal/metrics"
	"github.com/nekogravitycat/crm-backend/internal/organization"
	orgHttp "github.com/nekogravitycat/crm-backend/internal/organization/http"
	"github.com/nekogravitycat/crm-backend/internal/ratelimit"
	"github.com/nekogravitycat/crm-backend/internal/task"
	taskHttp "github.com/nekogravitycat/crm-backend/internal/task/http"
	"github.com/nekogravitycat/crm-backend/internal/user"
	userHttp "github.com/nekogravitycat/crm-backend/internal/user/http"
)

// Config holds the services and infrastructure the router is built from.
type Config struct {
	IsProduction   bool
	AllowedOrigins []string

	UserService    user.Service
	OrgService     organization.Service
	ContactService contact.Service
	DealService    deal.Service
	TaskService    task.Service
	JWTManager     *auth.JWTManager

	Health      *health.Handler
	Metrics     *metrics.HTTPMetrics
	RateLimiter *ratelimit.Limiter
}

// NewRouter initializes the HTTP router engine.
// It assembles the middleware chain and registers the routes of every module.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	useWireFieldNames()

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog(), cfg.Metrics.Middleware())

	corsConfig := cors.DefaultConfig()
	switch {
	case cfg.IsProduction && len(cfg.AllowedOrigins) == 0:
		// No cross-origin callers are allowed.
		corsConfig.AllowOriginFunc = func(string) bool { return false }
	case cfg.IsProduction:
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	default:
		corsConfig.AllowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", requestIDHeader}
	corsConfig.ExposeHeaders = []string{requestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	r.Use(cors.New(corsConfig))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})

	// Probes and metrics live outside /api.
	if cfg.Health != nil {
		health.RegisterRoutes(r, cfg.Health)
	}
	r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))

	authMiddleware := auth.AuthRequired(cfg.JWTManager, cfg.UserService)
	deleteMiddleware := auth.RequireRole(auth.DeleteRoles...)
	authRateLimit := cfg.RateLimiter.Middleware("auth")

	userHandler := userHttp.NewUserHandler(cfg.UserService, cfg.JWTManager)
	orgHandler := orgHttp.NewOrganizationHandler(cfg.OrgService)
	contactHandler := contactHttp.NewContactHandler(cfg.ContactService)
	dealHandler := dealHttp.NewDealHandler(cfg.DealService)
	taskHandler := taskHttp.NewTaskHandler(cfg.TaskService)

	apiGroup := r.Group("/api")
	{
		userHttp.RegisterRoutes(apiGroup, userHandler, authMiddleware, authRateLimit)
		orgHttp.RegisterRoutes(apiGroup, orgHandler, authMiddleware, deleteMiddleware)
		contactHttp.RegisterRoutes(apiGroup, contactHandler, authMiddleware, deleteMiddleware)
		dealHttp.RegisterRoutes(apiGroup, dealHandler, authMiddleware, deleteMiddleware)
		taskHttp.RegisterRoutes(apiGroup, taskHandler, authMiddleware, deleteMiddleware)
	}

	return r
}
