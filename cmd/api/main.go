package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"vagvanner/backend/internal/config"
	"vagvanner/backend/internal/domain/alert"
	"vagvanner/backend/internal/domain/booking"
	"vagvanner/backend/internal/domain/listing"
	"vagvanner/backend/internal/domain/payment"
	"vagvanner/backend/internal/domain/user"
	"vagvanner/backend/internal/events"
	"vagvanner/backend/internal/firebase"
	apihttp "vagvanner/backend/internal/http"
	"vagvanner/backend/internal/lock"
	"vagvanner/backend/internal/logging"
	"vagvanner/backend/internal/notify"
	"vagvanner/backend/internal/uploads"
)

func main() {
	cfg, err := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fb, err := firebase.NewClients(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("firebase init failed")
	}
	defer fb.Close()

	// Repositories
	userRepo := user.NewRepo(fb.Firestore)
	listingRepo := listing.NewRepo(fb.Firestore)
	bookingRepo := booking.NewRepo(fb.Firestore)
	alertRepo := alert.NewRepo(fb.Firestore)
	inbox := notify.NewInbox(fb.Firestore)

	// Notifications: inbox always, push and SMS when configured
	notifier := notify.Fanout{inbox}
	if fb.Messaging != nil {
		notifier = append(notifier, notify.NewPush(fb.Messaging, userRepo, log))
	}
	if cfg.SMSEnabled() {
		notifier = append(notifier, notify.NewSMS(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber))
		log.Info("sms notifications enabled")
	}

	var locker lock.Locker = lock.NewLocal()
	if cfg.RedisEnabled() {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).Fatal("redis unreachable")
		}
		locker = lock.NewRedis(rdb, log)
		log.WithField("addr", cfg.RedisAddr).Info("quota lock backed by redis")
	} else {
		log.Warn("REDIS_ADDR not set, quota lock is process-local")
	}

	var publisher listing.Publisher
	if cfg.KafkaEnabled() {
		p := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaListingsTopic, log)
		defer p.Close()
		publisher = p
	} else {
		log.Warn("KAFKA_BROKERS not set, listing alerts are not dispatched")
	}

	loc := listing.StockholmLocation()

	// Services
	listingSvc := listing.NewService(listingRepo, locker, publisher, log, listing.Options{
		LockTTL:          cfg.QuotaLockTTL,
		DiscoveryTimeout: cfg.DiscoveryTimeout,
		Location:         loc,
		Profiles:         userRepo,
	})
	alertSvc := alert.NewService(alertRepo, notifier, log, alert.Options{Location: loc})

	var payments booking.PaymentProvider
	if cfg.PaymentsEnabled() {
		payments = payment.NewStripe(cfg.StripeSecretKey, log)
		log.Info("stripe payments enabled")
	} else {
		log.Warn("STRIPE_SECRET_KEY not set, paid unlock disabled")
	}
	bookingSvc := booking.NewService(bookingRepo, listingSvc, payments, notifier, log, booking.Options{
		Fee:          cfg.UnlockFee,
		Currency:     cfg.UnlockCurrency,
		DirectUnlock: cfg.DirectUnlockEnabled(),
		Profiles:     userRepo,
	})

	var webhook http.Handler
	if cfg.PaymentsEnabled() && cfg.StripeWebhookSecret != "" {
		webhook = payment.NewWebhookHandler(cfg.StripeWebhookSecret, bookingSvc, log)
	}

	signer, closeSigner, err := uploads.NewSigner(ctx, cfg.StorageBucket, cfg.SignedURLServiceAccountEmail)
	if err != nil {
		log.WithError(err).Fatal("upload signer init failed")
	}
	defer closeSigner()
	if !signer.Enabled() {
		log.Warn("SIGNED_URL_SERVICE_ACCOUNT_EMAIL not set, report attachments disabled")
	}

	router := apihttp.NewRouter(apihttp.RouterDeps{
		Cfg:      cfg,
		Log:      log,
		Verifier: fb.Auth,
		Profiles: userRepo,
		Inbox:    inbox,
		Listings: listingSvc,
		Bookings: bookingSvc,
		Alerts:   alertSvc,
		Uploads:  signer,
		Webhook:  webhook,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// graceful shutdown
	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "project": cfg.ProjectID}).Info("API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("listen failed")
		}
	}()

	<-ctx.Done()
	stop()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	log.Info("shutting down...")
	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.WithError(err).Warn("shutdown incomplete")
	}
}
