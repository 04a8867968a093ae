package main

import (
	"context"
	"log"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"reputely/config"
	controller "reputely/controllers"
	"reputely/middleware"
	"reputely/queue"
	"reputely/repository"
	"reputely/routes"
	"reputely/services"
	"reputely/utils"
	"reputely/worker"
)

func main() {
	logger := log.New(os.Stdout, "REPUTELY: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Fatalf("Failed to initialize Sentry: %v", err)
		}
	}

	// Initialize infrastructure connections
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := config.ConnectRedis(); err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	amqpConn, err := config.ConnectAMQP()
	if err != nil {
		logger.Fatalf("Failed to connect to AMQP broker: %v", err)
	}
	defer amqpConn.Close()

	dispatchQueue, err := queue.NewAMQPQueue(amqpConn, log.New(os.Stdout, "QUEUE: ", log.LstdFlags))
	if err != nil {
		logger.Fatalf("Failed to set up dispatch queue: %v", err)
	}

	// Repositories
	campaignRepo := repository.NewCampaignRepository(config.DB)
	recipientRepo := repository.NewRecipientRepository(config.DB)
	messageRepo := repository.NewMessageRepository(config.DB)
	customerRepo := repository.NewCustomerRepository(config.DB)
	businessRepo := repository.NewBusinessRepository(config.DB)

	// Channel senders
	mailer := utils.NewSMTPMailer(
		config.AppConfig.SMTPHost,
		config.AppConfig.SMTPPort,
		config.AppConfig.SMTPUsername,
		config.AppConfig.SMTPPassword,
		"Reputely",
		config.AppConfig.FromEmail,
		log.New(os.Stdout, "MAILER: ", log.LstdFlags),
	)
	smsSender := utils.NewTelnyxSMS(
		config.AppConfig.TelnyxAPIKey,
		config.AppConfig.TelnyxFrom,
		config.AppConfig.TelnyxProfile,
		log.New(os.Stdout, "SMS: ", log.LstdFlags),
	)

	var locker services.CampaignLocker
	if config.Redis != nil {
		locker = services.NewRedisCampaignLocker(config.Redis, config.AppConfig.LockTTL)
	} else {
		locker = services.NewMemoryLocker()
	}

	// Services
	campaignService := services.NewCampaignService(campaignRepo, recipientRepo, dispatchQueue,
		log.New(os.Stdout, "CAMPAIGN: ", log.LstdFlags))
	dispatchService := services.NewDispatchService(campaignRepo, recipientRepo, customerRepo, businessRepo,
		mailer, smsSender, locker, log.New(os.Stdout, "DISPATCH: ", log.LstdFlags))
	dispatchService.BatchSize = config.AppConfig.DispatchBatch
	statsService := services.NewStatsService(campaignRepo, messageRepo)

	campaignController := controller.NewCampaignController(campaignService, statsService, messageRepo,
		log.New(os.Stdout, "CAMPAIGN-API: ", log.LstdFlags))

	// Background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatchWorker := worker.NewDispatchWorker(dispatchQueue, dispatchService)
	go func() {
		if err := dispatchWorker.Start(ctx); err != nil {
			logger.Printf("Dispatch worker stopped: %v", err)
		}
	}()

	schedulerWorker := worker.NewSchedulerWorker(campaignRepo, dispatchQueue)
	go schedulerWorker.Start(ctx)

	// HTTP surface
	app := fiber.New()
	app.Use(middleware.CORS())
	routes.SetupRoutes(app, campaignController, businessRepo)

	logger.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
