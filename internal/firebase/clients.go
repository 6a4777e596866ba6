package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"vagvanner/backend/internal/config"
)

// Clients bundles the Firebase clients the processes share.
type Clients struct {
	App       *firebase.App
	Auth      *auth.Client
	Firestore *firestore.Client
	Messaging *messaging.Client

	ProjectID string
}

// NewClients builds the clients from Application Default Credentials.
// Locally, GOOGLE_APPLICATION_CREDENTIALS or FIREBASE_SERVICE_ACCOUNT_JSON
// select a service account instead.
func NewClients(ctx context.Context, cfg config.Config) (*Clients, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("missing FIREBASE_PROJECT_ID or GOOGLE_CLOUD_PROJECT")
	}

	var opts []option.ClientOption
	if js := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); js != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(js)))
	} else if cred := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); cred != "" {
		opts = append(opts, option.WithCredentialsFile(cred))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     cfg.ProjectID,
		StorageBucket: cfg.StorageBucket,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore: %w", err)
	}

	// push is optional; without it notifications stay in the inbox
	msg, _ := app.Messaging(ctx)

	return &Clients{
		App:       app,
		Auth:      authClient,
		Firestore: fs,
		Messaging: msg,
		ProjectID: cfg.ProjectID,
	}, nil
}

func (c *Clients) Close() error {
	if c == nil || c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}
