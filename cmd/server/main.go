package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"safeflame-backend/internal/admin"
	"safeflame-backend/internal/apperr"
	"safeflame-backend/internal/audit"
	"safeflame-backend/internal/auth"
	"safeflame-backend/internal/booking"
	"safeflame-backend/internal/cache"
	"safeflame-backend/internal/config"
	"safeflame-backend/internal/database"
	"safeflame-backend/internal/mailer"
	"safeflame-backend/internal/models"
	"safeflame-backend/internal/notification"
	"safeflame-backend/internal/storage"
	"safeflame-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logger := config.NewLogger(cfg)
	cfg.LogWarnings(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("database unavailable")
	}
	if err := auth.EnsureAdmin(ctx, db, cfg, logger); err != nil {
		logger.WithError(err).Fatal("could not seed admin account")
	}

	rdb := cache.Connect(ctx, cfg.RedisAddress, logger)
	defer rdb.Close()

	proofs, err := storage.New(ctx, cfg)
	if err != nil {
		logger.WithError(err).Fatal("payment proof storage unavailable")
	}
	if c, ok := proofs.(io.Closer); ok {
		defer c.Close()
	}

	mail := mailer.New(mailer.NewSender(cfg, logger), cfg.ClientURL, logger)
	validate := validation.New()

	bookings, err := booking.NewFromConfig(cfg, db, mail, logger, booking.WithLocker(rdb))
	if err != nil {
		logger.WithError(err).Fatal("booking service")
	}
	notices := notification.NewService(db, rdb, logger)

	app := fiber.New(fiber.Config{
		ErrorHandler: apperr.Handler(logger),
		BodyLimit:    storage.MaxProofBytes + 1024*1024,
	})

	app.Use(recover.New())
	app.Use(requestLogger(logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: true,
	}))

	if cfg.ProofStorage == "" || cfg.ProofStorage == "local" {
		app.Static("/uploads", cfg.ProofLocalPath)
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "status": "ok"})
	})

	api := app.Group("/api")

	authDeps := auth.Deps{DB: db, Config: cfg, Mailer: mail, Validate: validate, Log: logger}

	// Public
	api.Post("/auth/register", auth.RegisterHandler(authDeps))
	api.Post("/auth/login", auth.LoginHandler(authDeps))
	api.Post("/auth/logout", auth.LogoutHandler())
	api.Post("/auth/resend-verification", auth.ResendVerificationHandler(authDeps))
	api.Get("/auth/verify-email/:token", auth.VerifyEmailHandler(authDeps))
	api.Get("/notifications", notification.ListHandler(notices))
	api.Post("/logs", auth.OptionalJWT(cfg), audit.CreateLogHandler(db, auth.OptionalUserID))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler(authDeps))

	bookingDeps := booking.HandlerDeps{Bookings: bookings, Proofs: proofs, Validate: validate, Log: logger}
	protected.Post("/bookings", booking.CreateHandler(bookingDeps))
	protected.Get("/bookings/history", booking.HistoryHandler(bookings))
	protected.Get("/bookings/check-pending", booking.CheckPendingHandler(bookings))
	protected.Get("/bookings/balance", booking.BalanceHandler(bookings))
	protected.Post("/bookings/email-balance", booking.EmailBalanceHandler(bookings))

	// Admin
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	adminDeps := admin.Deps{Bookings: bookings, DB: db, Validate: validate, Log: logger}
	adminRoutes.Get("/bookings/pending", admin.PendingBookingsHandler(adminDeps))
	adminRoutes.Get("/bookings/payment-verification", admin.PaymentVerificationListHandler(adminDeps))
	adminRoutes.Get("/bookings/export", admin.ExportBookingsHandler(adminDeps))
	adminRoutes.Put("/bookings/:id", admin.UpdateBookingHandler(adminDeps))
	adminRoutes.Put("/bookings/:id/verify-payment", admin.VerifyPaymentHandler(adminDeps))
	adminRoutes.Get("/bookings/:id/payment-proof", admin.PaymentProofHandler(adminDeps))
	adminRoutes.Get("/users", admin.UsersHandler(adminDeps))
	adminRoutes.Post("/notifications", notification.CreateHandler(notices, validate))

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.WithError(err).Error("shutdown")
		}
	}()

	logger.Infof("server listening on port %s", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}
