// Command set-claims grants or revokes the admin custom claim on a user.
package main

import (
	"context"
	"flag"

	"github.com/sirupsen/logrus"

	"vagvanner/backend/internal/config"
	"vagvanner/backend/internal/firebase"
	"vagvanner/backend/internal/logging"
)

func main() {
	uid := flag.String("uid", "", "target firebase uid")
	revoke := flag.Bool("revoke", false, "remove the admin claim instead of setting it")
	flag.Parse()

	log := logging.New("info", "text")
	if *uid == "" {
		log.Fatal("uid is required: -uid=xxxxx")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx := context.Background()
	fb, err := firebase.NewClients(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("firebase init failed")
	}
	defer fb.Close()

	claims := map[string]interface{}{"admin": true}
	if *revoke {
		claims = map[string]interface{}{}
	}

	if err := fb.Auth.SetCustomUserClaims(ctx, *uid, claims); err != nil {
		log.WithError(err).Fatal("SetCustomUserClaims failed")
	}

	log.WithFields(logrus.Fields{"uid": *uid, "admin": !*revoke}).Info("ok: claims updated")
}
