// Command alert-worker consumes listing events and notifies users whose
// saved searches match the new listing.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"vagvanner/backend/internal/config"
	"vagvanner/backend/internal/domain/alert"
	"vagvanner/backend/internal/domain/listing"
	"vagvanner/backend/internal/domain/user"
	"vagvanner/backend/internal/events"
	"vagvanner/backend/internal/firebase"
	"vagvanner/backend/internal/logging"
	"vagvanner/backend/internal/notify"
)

func main() {
	cfg, err := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if !cfg.KafkaEnabled() {
		log.Fatal("KAFKA_BROKERS is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fb, err := firebase.NewClients(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("firebase init failed")
	}
	defer fb.Close()

	notifier := notify.Fanout{notify.NewInbox(fb.Firestore)}
	if fb.Messaging != nil {
		notifier = append(notifier, notify.NewPush(fb.Messaging, user.NewRepo(fb.Firestore), log))
	}
	alertSvc := alert.NewService(alert.NewRepo(fb.Firestore), notifier, log, alert.Options{
		Location: listing.StockholmLocation(),
	})

	consumer := events.NewConsumer(cfg.KafkaBrokers, cfg.KafkaListingsTopic, cfg.KafkaGroupID,
		func(ctx context.Context, l *listing.Listing) error {
			n, err := alertSvc.Dispatch(ctx, l)
			if err != nil {
				return err
			}
			if n > 0 {
				log.WithFields(logrus.Fields{"listingId": l.ID, "notified": n}).Info("alerts dispatched")
			}
			return nil
		}, log)
	defer consumer.Close()

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadTimeout: cfg.ReadTimeout}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server stopped")
		}
	}()

	log.WithFields(logrus.Fields{"topic": cfg.KafkaListingsTopic, "group": cfg.KafkaGroupID}).Info("alert worker started")
	if err := consumer.Run(ctx); err != nil {
		log.WithError(err).Error("consumer stopped")
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	log.Info("alert worker stopped")
}
