package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/familyvault/familyvault/internal/auth"
	"github.com/familyvault/familyvault/internal/config"
	"github.com/familyvault/familyvault/internal/database"
	dochandler "github.com/familyvault/familyvault/internal/document/handler"
	docservice "github.com/familyvault/familyvault/internal/document/service"
	"github.com/familyvault/familyvault/internal/oidc"
	sharehandler "github.com/familyvault/familyvault/internal/share/handler"
	sharerepo "github.com/familyvault/familyvault/internal/share/repository"
	shareservice "github.com/familyvault/familyvault/internal/share/service"
	"github.com/familyvault/familyvault/internal/storage"
	"github.com/familyvault/familyvault/internal/tickets"
	"github.com/familyvault/familyvault/internal/tokens"
	"github.com/familyvault/familyvault/internal/users"
	"github.com/familyvault/familyvault/pkg/logger"
	"github.com/familyvault/familyvault/pkg/metrics"
	"github.com/familyvault/familyvault/pkg/middleware"
)

var startTime = time.Now()

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v minio=%v oidc=%v",
		cfg.MongoDB.URI != "", cfg.Redis.Host != "", os.Getenv("MINIO_ENDPOINT") != "", cfg.OIDC.Issuer != "")

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Permissive CORS for dev/test; production fronts this with a stricter proxy.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})

	ctx := context.Background()

	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Token verifier: OIDC when an issuer is configured, otherwise HS256 with
	// the shared JWT secret.
	var verifier middleware.Verifier
	if os.Getenv("AUTH_INSECURE_SKIP_VERIFY") == "true" && cfg.Server.Environment == "development" {
		logger.Warnf("token signature verification is DISABLED (AUTH_INSECURE_SKIP_VERIFY)")
		verifier = oidc.NewInsecureVerifier()
	}
	if verifier == nil && cfg.OIDC.Issuer != "" && cfg.OIDC.ClientID != "" {
		ver, err := oidc.NewVerifier(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			verifier = ver
		}
	}
	if verifier == nil && cfg.JWT.Secret != "" {
		verifier = tokens.NewHMACVerifier(cfg.JWT.Secret)
	}
	if verifier == nil {
		logger.Fatalf("no token verifier available: set OIDC_ISSUER/OIDC_CLIENT_ID or JWT_SECRET")
	}

	// Persistence: Mongo when configured, in-memory stores for local runs.
	// Everything in memory is lost on restart; fine for development.
	var mongoClient *mongo.Client
	userSvc := users.NewService(users.NewMemoryUserRepository())
	docSvc := docservice.NewMemoryService()
	var grantStore sharerepo.GrantStore = sharerepo.NewMemoryStore()
	var ticketRepo tickets.Repository

	if cfg.MongoDB.URI == "" {
		logger.Warnf("MONGODB_URI not set, using in-memory stores")
	} else {
		var errConn error
		mongoClient, errConn = database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if errConn != nil {
			logger.Fatalf("could not connect to MongoDB: %v", errConn)
		}
		defer func() { _ = mongoClient.Disconnect(ctx) }()

		db := mongoClient.Database(cfg.MongoDB.Database)
		userSvc = users.NewService(users.NewMongoUserRepository(db.Collection("users")))
		docSvc = docservice.NewMongoService(db.Collection("documents"))
		grantStore = sharerepo.NewMongoStore(db.Collection("shares"))
		ticketRepo = tickets.NewMongoRepository(db.Collection("download_tickets"))
	}
	if redisClient != nil {
		// prefer Redis for tickets: TTL eviction without a sweeper
		ticketRepo = tickets.NewRedisRepository(redisClient, "ticket:")
	}

	var objectStore *storage.MinIOStorage
	if os.Getenv("MINIO_ENDPOINT") != "" {
		objectStore, err = storage.NewMinIOStorage(storage.LoadMinIOConfig())
		if err != nil {
			logger.Warnf("failed to initialize MinIO storage: %v", err)
		}
	}

	shareSvc := shareservice.New(grantStore, docSvc, userSvc, shareservice.Options{
		ValidityWindow:  cfg.ShareValidityWindow(),
		IncludeInactive: cfg.Share.ListIncludeInactive,
	})

	var ticketSvc *tickets.Service
	if ticketRepo != nil {
		ticketSvc = tickets.NewService(ticketRepo)
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{
			"mongo":   mongoClient != nil,
			"redis":   redisClient != nil || cfg.Redis.Host == "",
			"storage": objectStore != nil || os.Getenv("MINIO_ENDPOINT") == "",
		}
		for _, ok := range deps {
			if !ok {
				ready = false
			}
		}
		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	api := r.Group("/api", middleware.AuthMiddleware(verifier))
	api.GET("/me", func(c *gin.Context) {
		claims := middleware.Claims(c)
		u, err := userSvc.UpsertFromClaims(c.Request.Context(), claims)
		if err != nil || u == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "could not resolve user"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": u})
	})

	sharehandler.RegisterShareRoutes(api, shareSvc)

	public := r.Group("/api")
	auth.NewHandler(cfg, userSvc).Register(public, api)
	docHandler := dochandler.New(docSvc, shareSvc, objectStoreOrNil(objectStore), ticketSvc, cfg.Share.TicketTTL)
	docHandler.Register(api, public)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting familyvault API on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}

// objectStoreOrNil avoids handing the handler a typed-nil interface value.
func objectStoreOrNil(s *storage.MinIOStorage) dochandler.ObjectStore {
	if s == nil {
		return nil
	}
	return s
}
