package app

import (
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nekogravitycat/crm-backend/internal/api"
	"github.com/nekogravitycat/crm-backend/internal/auth"
	"github.com/nekogravitycat/crm-backend/internal/contact"
	"github.com/nekogravitycat/crm-backend/internal/db"
	"github.com/nekogravitycat/crm-backend/internal/deal"
	"github.com/nekogravitycat/crm-backend/internal/health"
	"github.com/nekogravitycat/crm-backend/internal/metrics"
	"github.com/nekogravitycat/crm-backend/internal/notify"
	"github.com/nekogravitycat/crm-backend/internal/organization"
	"github.com/nekogravitycat/crm-backend/internal/ratelimit"
	"github.com/nekogravitycat/crm-backend/internal/task"
	"github.com/nekogravitycat/crm-backend/internal/user"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction   bool
	AllowedOrigins []string
	DB             db.DBTX
	Pinger         health.Pinger
	JWTSecret      string
	JWTTTL         time.Duration
	BcryptCost     int
	FrontendURL    string

	// Optional infrastructure. Nil values fall back to in-process behavior.
	Redis         *redis.Client
	RateLimit     int
	RateWindow    time.Duration
	KafkaProducer sarama.SyncProducer
	KafkaTopic    string
	Registerer    prometheus.Registerer
	Gatherer      prometheus.Gatherer
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config, log *zap.Logger) (*Container, error) {
	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	var notifier notify.Notifier
	if cfg.KafkaProducer != nil {
		notifier = notify.NewKafkaNotifier(cfg.KafkaProducer, cfg.KafkaTopic, "crm-backend")
		log.Info("password reset notifications go to kafka", zap.String("topic", cfg.KafkaTopic))
	} else {
		notifier = notify.NewLogNotifier(!cfg.IsProduction)
		log.Info("password reset notifications are logged")
	}

	httpMetrics, err := metrics.New(metrics.Options{
		Registerer: cfg.Registerer,
		Gatherer:   cfg.Gatherer,
	})
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	// User Module
	userRepo := user.NewPgxRepository(cfg.DB)
	userService := user.NewService(userRepo, passwordHasher, notifier, cfg.FrontendURL)

	// Organization Module
	orgRepo := organization.NewPgxRepository(cfg.DB)
	orgService := organization.NewService(orgRepo)

	// Contact Module
	contactRepo := contact.NewPgxRepository(cfg.DB)
	contactService := contact.NewService(contactRepo, orgService)

	// Deal Module
	dealRepo := deal.NewPgxRepository(cfg.DB)
	dealService := deal.NewService(dealRepo, contactService, orgService)

	// Task Module
	taskRepo := task.NewPgxRepository(cfg.DB)
	taskService := task.NewService(taskRepo, contactService, dealService, orgService)

	router := api.NewRouter(api.Config{
		IsProduction:   cfg.IsProduction,
		AllowedOrigins: cfg.AllowedOrigins,
		UserService:    userService,
		OrgService:     orgService,
		ContactService: contactService,
		DealService:    dealService,
		TaskService:    taskService,
		JWTManager:     jwtManager,
		Health:         health.NewHandler(cfg.Pinger, Version),
		Metrics:        httpMetrics,
		RateLimiter:    ratelimit.New(cfg.Redis, cfg.RateLimit, cfg.RateWindow),
	})

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
	}, nil
}
