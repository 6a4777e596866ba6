// Package uploads issues V4 signed PUT URLs so clients upload report
// evidence straight to Cloud Storage.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	credentialspb "cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
)

var ErrDisabled = errors.New("uploads not configured")

const (
	DefaultTTL = 15 * time.Minute
	maxTTL     = time.Hour
)

// SignFunc signs a payload as the configured service account.
type SignFunc func(ctx context.Context, payload []byte) ([]byte, error)

type SignedURL struct {
	URL         string    `json:"url"`
	Method      string    `json:"method"`
	ObjectPath  string    `json:"objectPath"`
	ContentType string    `json:"contentType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type Signer struct {
	bucket         string
	serviceAccount string
	sign           SignFunc
	now            func() time.Time
}

// NewSigner signs through the IAM credentials API. A missing bucket or
// service account yields a Signer that always returns ErrDisabled.
func NewSigner(ctx context.Context, bucket, serviceAccount string) (*Signer, func() error, error) {
	noop := func() error { return nil }
	if bucket == "" || serviceAccount == "" {
		return &Signer{}, noop, nil
	}
	client, err := credentials.NewIamCredentialsClient(ctx)
	if err != nil {
		return nil, noop, fmt.Errorf("iam credentials client: %w", err)
	}
	name := fmt.Sprintf("projects/-/serviceAccounts/%s", serviceAccount)
	sign := func(ctx context.Context, payload []byte) ([]byte, error) {
		resp, err := client.SignBlob(ctx, &credentialspb.SignBlobRequest{Name: name, Payload: payload})
		if err != nil {
			return nil, err
		}
		return resp.SignedBlob, nil
	}
	return newSigner(bucket, serviceAccount, sign), client.Close, nil
}

func newSigner(bucket, serviceAccount string, sign SignFunc) *Signer {
	return &Signer{bucket: bucket, serviceAccount: serviceAccount, sign: sign, now: time.Now}
}

func (s *Signer) Enabled() bool { return s != nil && s.sign != nil }

// PutURL returns a signed upload URL for objectPath. The client must send the
// same Content-Type header.
func (s *Signer) PutURL(ctx context.Context, objectPath, contentType string, ttl time.Duration) (*SignedURL, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}
	if ttl <= 0 || ttl > maxTTL {
		ttl = DefaultTTL
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	exp := s.now().Add(ttl)

	url, err := storage.SignedURL(s.bucket, objectPath, &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "PUT",
		Expires:        exp,
		ContentType:    contentType,
		GoogleAccessID: s.serviceAccount,
		SignBytes: func(b []byte) ([]byte, error) {
			return s.sign(ctx, b)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign url (check service account permissions): %w", err)
	}
	return &SignedURL{URL: url, Method: "PUT", ObjectPath: objectPath, ContentType: contentType, ExpiresAt: exp.UTC()}, nil
}
