package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"cleanserve/internal/auth"
	"cleanserve/internal/booking/booking_api"
	bookingdb "cleanserve/internal/booking/db"
	booking "cleanserve/internal/booking/service"
	"cleanserve/internal/chat"
	"cleanserve/internal/config"
	"cleanserve/internal/coupon/coupon_api"
	coupondb "cleanserve/internal/coupon/db"
	couponredis "cleanserve/internal/coupon/redis"
	coupon "cleanserve/internal/coupon/service"
	"cleanserve/internal/kafka"
	"cleanserve/internal/logger"
	marketingdb "cleanserve/internal/marketing/db"
	"cleanserve/internal/marketing/marketing_api"
	marketing "cleanserve/internal/marketing/service"
	"cleanserve/internal/models"
	"cleanserve/internal/payment/moyasar"
	"cleanserve/internal/payment/payment_api"
	payment "cleanserve/internal/payment/service"
	"cleanserve/internal/payment/storage"
	"cleanserve/internal/payment/tabby"
	supportdb "cleanserve/internal/support/db"
	support "cleanserve/internal/support/service"
	"cleanserve/internal/support/support_api"
	techdb "cleanserve/internal/technician/db"
	technician "cleanserve/internal/technician/service"
	"cleanserve/internal/technician/technician_api"
	userdb "cleanserve/internal/user/db"
	user "cleanserve/internal/user/service"
	"cleanserve/internal/user/user_api"
	"cleanserve/internal/utils"
)

func verifyConnections(ctx context.Context, cfg *config.Config, log *logger.Logger) (*bun.DB, *sql.DB, *redis.Client) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Username, cfg.Database.Password, cfg.Database.Database)

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", dsn)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}
	log.Info("DATABASE", "✅ PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, sqldb, redisClient
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting CleanServe API initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	log.Info("APP", "Verifying database connections")
	bunDB, sqldb, redisClient := verifyConnections(ctx, cfg, log)
	defer bunDB.Close()
	defer redisClient.Close()

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		log.Info("KAFKA", fmt.Sprintf("Kafka producer initialized for %v", cfg.Kafka.Brokers))

		requiredTopics := []string{
			cfg.Kafka.Topics.BookingStatus,
			cfg.Kafka.Topics.SupportEvents,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured successfully")
		}
	} else {
		log.Warn("KAFKA", "Kafka disabled, events will not be published")
	}

	userDB := &userdb.DB{Bun: bunDB}
	supportDB := &supportdb.DB{Bun: bunDB}
	couponDB := &coupondb.DB{Bun: bunDB}
	marketingDB := &marketingdb.DB{Bun: bunDB}
	bookingDB := &bookingdb.DB{Bun: bunDB}
	technicianDB := &techdb.DB{Bun: bunDB}

	paymentStore, err := storage.NewPostgreSQLStoreWithDB(sqldb, log)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Payment storage init failed: %v", err))
	}

	userService := user.NewUserService(userDB, auth.NewOTPStore(redisClient), cfg.Auth, log)
	marketingService := marketing.NewMarketingService(marketingDB)
	couponService := coupon.NewCouponService(couponDB, bookingDB, couponredis.NewLock(redisClient), log)
	technicianService := technician.NewTechnicianService(technicianDB, log)

	var supportEvents support.EventPublisher
	var bookingEvents booking.EventPublisher
	if producer != nil {
		supportEvents = producer
		bookingEvents = producer
	}
	supportService := support.NewSupportService(supportDB, userDB, supportEvents, cfg.Kafka.Topics.SupportEvents, log)
	bookingService := booking.NewBookingService(bookingDB, bookingEvents, cfg.Kafka.Topics.BookingStatus, log)

	moyasarClient, err := moyasar.NewClient(cfg.Payments.MoyasarAPIKey, cfg.Payments.MoyasarBaseURL, log)
	if err != nil {
		log.Fatal("PAYMENT", fmt.Sprintf("Moyasar client init failed: %v", err))
	}
	tabbyClient, err := tabby.NewClient(cfg.Payments.TabbyAPIKey, cfg.Payments.TabbyBaseURL, log)
	if err != nil {
		log.Fatal("PAYMENT", fmt.Sprintf("Tabby client init failed: %v", err))
	}
	paymentService := payment.NewPaymentService(paymentStore, moyasarClient, tabbyClient, bookingService, userDB, cfg.Payments.CallbackURL, log)

	userHandler := user_api.NewHandler(userService, log)
	supportHandler := support_api.NewHandler(supportService, log)
	couponHandler := coupon_api.NewHandler(couponService, log)
	marketingHandler := marketing_api.NewHandler(marketingService, log)
	bookingHandler := booking_api.NewHandler(bookingService, log)
	technicianHandler := technician_api.NewHandler(technicianService, log)
	paymentHandler := payment_api.NewHandler(paymentService, log)
	chatHandler := chat.NewHandler(chat.NewHub(log), cfg.Auth.JWTSecret, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ok", map[string]interface{}{
			"service": "cleanserve-api",
			"time":    time.Now().UTC(),
		}))
	})

	r.Get("/ws", chatHandler.ServeWS)

	r.Route("/api/v2", func(r chi.Router) {
		// --- Public Routes ---
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", userHandler.Register)
			r.Post("/verify-otp", userHandler.VerifyOTP)
			r.Post("/login", userHandler.Login)
			r.Post("/forgot-password", userHandler.ForgotPassword)
			r.Post("/reset-password", userHandler.ResetPassword)
		})
		r.Get("/support/faqs", supportHandler.GetFAQs)
		r.Post("/payments/callback/moyasar", paymentHandler.MoyasarCallback)
		r.Post("/payments/callback/tabby", paymentHandler.TabbyCallback)

		// --- Protected Routes ---
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(cfg.Auth.JWTSecret))

			r.Post("/auth/change-password", userHandler.ChangePassword)

			r.Route("/support", func(r chi.Router) {
				r.Post("/tickets", supportHandler.CreateTicket)
				r.Get("/tickets", supportHandler.GetUserTickets)
				r.Get("/tickets/{id}", supportHandler.GetTicket)
				r.Get("/tickets/{id}/messages", supportHandler.GetTicketMessages)
				r.Post("/messages", supportHandler.SendMessage)
			})

			r.Post("/coupons/validate", couponHandler.ValidateCoupon)

			r.Route("/bookings", func(r chi.Router) {
				r.Post("/", bookingHandler.CreateBooking)
				r.Get("/", bookingHandler.GetCustomerBookings)
				r.Get("/{id}", bookingHandler.GetBooking)
				r.Patch("/{id}/status", bookingHandler.UpdateStatus)
			})

			r.Route("/payments", func(r chi.Router) {
				r.Post("/create", paymentHandler.CreatePayment)
				r.Get("/{id}", paymentHandler.GetPayment)
			})

			r.Route("/technician", func(r chi.Router) {
				r.Use(auth.RequireRole(models.RoleTechnician, models.RoleAdmin))
				r.Get("/profile", technicianHandler.GetProfile)
				r.Put("/profile", technicianHandler.UpdateProfile)
				r.Get("/bookings", bookingHandler.GetTechnicianCalendar)
				r.Post("/quotations", bookingHandler.CreateQuotation)
				r.Get("/quotations", bookingHandler.GetTechnicianQuotations)
			})

			r.Route("/admin", func(r chi.Router) {
				// Ticket status changes are open to support staff,
				// everything else under /admin is admin only.
				r.Group(func(r chi.Router) {
					r.Use(auth.RequireRole(models.RoleAdmin, models.RoleSupport))
					r.Put("/support/tickets/{id}/status", supportHandler.UpdateTicketStatus)
				})

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireRole(models.RoleAdmin))

					r.Get("/support/tickets", supportHandler.GetAllTickets)
					r.Put("/support/tickets/{id}/assign", supportHandler.AssignTicket)

					r.Route("/coupons", func(r chi.Router) {
						r.Post("/", couponHandler.CreateCoupon)
						r.Get("/", couponHandler.ListCoupons)
						r.Get("/{id}", couponHandler.GetCoupon)
						r.Put("/{id}", couponHandler.UpdateCoupon)
						r.Delete("/{id}", couponHandler.DeleteCoupon)
						r.Get("/{id}/usage", couponHandler.GetUsageHistory)
					})

					r.Get("/marketing/settings", marketingHandler.GetSettings)
					r.Put("/marketing/settings", marketingHandler.UpdateSettings)

					r.Post("/payments/{id}/refund", paymentHandler.RefundPayment)
				})
			})
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 CleanServe API running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ CleanServe API shutdown complete")
	}
}
