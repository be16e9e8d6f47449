package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"checkout-service/config"
	"checkout-service/controllers"
	"checkout-service/database"
	"checkout-service/gateway"
	"checkout-service/kafka"
	"checkout-service/logger"
	"checkout-service/middleware"
	"checkout-service/models"
	awsx "checkout-service/pkg/aws"
	"checkout-service/repository"
	"checkout-service/routes"
	"checkout-service/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	webhookWorkers   = 4
	webhookQueueSize = 256
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger.Initialize(cfg.GoEnv)
	defer logger.Log.Sync()
	log := logger.Log

	if err := database.Connect(cfg); err != nil {
		log.Fatal("Database connection failed", zap.Error(err))
	}
	if err := database.DB.AutoMigrate(&models.Order{}, &models.OrderItem{}, &models.Payment{}); err != nil {
		log.Fatal("Database migration failed", zap.Error(err))
	}

	orderRepo := repository.NewGormOrderRepository(database.DB)
	paymentRepo := repository.NewGormPaymentRepository(database.DB)

	infinitePay := gateway.NewInfinitePayClient(gateway.InfinitePayConfig{
		BaseURL:     cfg.InfinitePayAPIURL,
		Handle:      cfg.InfinitePayHandle,
		WebhookURL:  cfg.WebhookURL(),
		RedirectURL: cfg.RedirectURL(),
	}, log)
	pagarme := gateway.NewPagarmeClient(cfg.PagarmeAPIURL, cfg.PagarmeSecretKey, log)

	var events services.EventPublisher
	var producer *kafka.PaymentEventProducer
	if cfg.KafkaBrokers != "" {
		producer = kafka.NewPaymentEventProducer(strings.Split(cfg.KafkaBrokers, ","), cfg.PaymentEventsTopic, log)
		events = producer
		defer producer.Close()
	}

	var snsPublisher awsx.SNSPublisher
	if cfg.PaymentSNSTopicARN != "" {
		awsCfg, err := awsx.LoadAWSConfig(context.Background())
		if err != nil {
			log.Fatal("AWS config load failed", zap.Error(err))
		}
		snsPublisher = awsx.NewSNSClient(awsCfg)
	}

	checkoutService := services.NewCheckoutService(orderRepo, paymentRepo, infinitePay, log)
	reconcileService := services.NewReconcileService(
		orderRepo, paymentRepo, infinitePay, events, snsPublisher, cfg.PaymentSNSTopicARN, log,
	)
	directPaymentService := services.NewDirectPaymentService(orderRepo, paymentRepo, pagarme, log)
	worker := services.NewWebhookWorker(reconcileService, webhookWorkers, webhookQueueSize, log)

	if cfg.GoEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(log))

	routes.Register(
		router,
		controllers.NewCheckoutController(checkoutService, reconcileService),
		controllers.NewPaymentController(directPaymentService),
		controllers.NewWebhookController(worker),
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("Checkout service listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}

	// Drain queued webhook work after the listener stops accepting new payloads.
	worker.Stop()

	log.Info("Shutdown complete")
}
