package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	aws_pkg "github.com/hassansajjadkhan/goaliv2vercel-sub001/pkg/aws"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/common/auth"
	apperrors "github.com/hassansajjadkhan/goaliv2vercel-sub001/services/common/errors"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/common/logger"
	commonmw "github.com/hassansajjadkhan/goaliv2vercel-sub001/services/common/middleware"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/cache"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/config"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/controllers"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/database"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/kafka"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/providers"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/routes"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/services"
	"go.uber.org/zap"
)

const (
	serviceName    = "payment-service"
	destinationTTL = 10 * time.Minute
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Logger, tee'd into CloudWatch Logs when enabled
	var cwWriter *aws_pkg.CloudWatchLogsClient
	if os.Getenv("CLOUDWATCH_ENABLED") == "true" {
		if cw, err := aws_pkg.NewCloudWatchLogsClient(ctx, serviceName); err == nil {
			cwWriter = cw
		} else {
			log.Printf("CloudWatch Logs unavailable: %v", err)
		}
	}
	var zapLogger *zap.Logger
	if cwWriter != nil {
		zapLogger = logger.InitializeWithWriter(cfg.AppEnv, cwWriter)
	} else {
		zapLogger = logger.Initialize(cfg.AppEnv)
	}
	defer zapLogger.Sync() //nolint:errcheck

	metrics, err := aws_pkg.NewMetricsClient(ctx)
	if err != nil {
		zapLogger.Warn("CloudWatch metrics disabled", zap.Error(err))
		metrics = nil
	}

	if err := database.Connect(cfg.Postgres.DSN(), zapLogger); err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close() //nolint:errcheck

	stores := services.NewGormStores(database.DB)
	gateway := providers.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookKey)

	// Optional infrastructure: every piece degrades to a local fallback
	var routesCache *cache.DestinationCache
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			zapLogger.Warn("Redis unavailable, destination cache disabled", zap.Error(err))
		} else {
			defer rdb.Close() //nolint:errcheck
			routesCache = cache.NewDestinationCache(rdb, destinationTTL)
		}
	}

	awsCfg, awsErr := aws_pkg.LoadAWSConfig(ctx)
	if awsErr != nil {
		zapLogger.Warn("AWS config unavailable, S3/SNS/SQS disabled", zap.Error(awsErr))
	}

	var uploader services.ArtifactUploader
	if cfg.TicketBucket != "" && awsErr == nil {
		s3u := aws_pkg.NewS3Uploader(awsCfg, cfg.TicketBucket)
		s3u.PublicBaseURL = cfg.TicketCDNURL
		uploader = s3u
	}

	var publisher services.EventPublisher
	switch cfg.EventBus {
	case config.EventBusSNS:
		if awsErr == nil {
			publisher = services.NewSNSEventPublisher(aws_pkg.NewSNSClient(awsCfg), cfg.PaymentSNSTopicARN)
		}
	case config.EventBusKafka:
		producer := kafka.NewEventProducer(cfg.KafkaBrokers, cfg.KafkaTopic, zapLogger)
		defer producer.Close() //nolint:errcheck
		publisher = producer
	}

	checkoutSvc := services.NewCheckoutService(stores, routesCache, gateway, services.CheckoutConfig{
		SuccessURL:      cfg.CheckoutSuccessURL(),
		CancelURL:       cfg.CheckoutCancelURL(),
		DefaultCurrency: cfg.DefaultCurrency,
		FeeBPS:          cfg.PlatformFeeBPS,
	}, metrics, zapLogger)
	fulfillmentSvc := services.NewFulfillmentService(stores, gateway, services.NewTicketIssuer(uploader), routesCache, publisher, metrics, zapLogger)
	duesSvc := services.NewDuesService(stores, publisher, cfg.DefaultCurrency, metrics, zapLogger)
	onboardingSvc := services.NewOnboardingService(stores, gateway, routesCache, services.OnboardingConfig{
		RefreshURL: cfg.OnboardingRefreshURL(),
		ReturnURL:  cfg.OnboardingReturnURL(),
		Country:    cfg.ConnectCountry,
	}, zapLogger)
	reportingSvc := services.NewReportingService(stores)

	if cfg.DuesQueueURL != "" && awsErr == nil {
		consumer := services.NewDuesRequestConsumer(
			aws_pkg.NewSQSConsumer(awsCfg, cfg.DuesQueueURL, zapLogger),
			duesSvc,
			metrics,
			zapLogger,
		)
		go consumer.Start(ctx)
	}

	var tokens *auth.TokenValidator
	if cfg.JWTSecret != "" {
		tokens = auth.NewTokenValidator(cfg.JWTSecret)
	}

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(commonmw.RequestLogger(zapLogger))
	r.Use(commonmw.SecurityHeaders())
	r.Use(commonmw.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(commonmw.MetricsMiddleware(metrics, serviceName))
	r.Use(commonmw.RequestTimeout(30 * time.Second))
	r.Use(apperrors.ErrorMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
	})

	routes.RegisterPaymentRoutes(r,
		controllers.NewPaymentController(checkoutSvc, fulfillmentSvc, reportingSvc, zapLogger),
		controllers.NewOrganizationController(onboardingSvc, duesSvc, reportingSvc),
		routes.Guards{
			Tokens:    tokens,
			Members:   stores.Organizations,
			RateLimit: commonmw.RateLimitMiddleware(ctx, 300, 50),
		},
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	zapLogger.Info("Payment service started", zap.String("port", cfg.Port), zap.String("event_bus", cfg.EventBus))
	<-ctx.Done()
	zapLogger.Info("Shutting down payment service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exited cleanly")
}
