package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

func CORS(allowedOrigins []string, log logrus.FieldLogger) func(http.Handler) http.Handler {
	// empty allows everything (local development)
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	log.WithField("origins", allowedOrigins).Info("cors configured")

	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
