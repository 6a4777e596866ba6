package user

import (
	"strings"
	"time"
)

// CurrentUser is the authenticated caller. It is built once per request
// from the verified ID token and passed explicitly to services.
type CurrentUser struct {
	UID    string
	Email  string
	Phone  string
	Name   string
	Claims map[string]any
}

func (cu CurrentUser) IsAdmin() bool { return IsAdmin(cu.Claims) }

func (cu CurrentUser) Contact() Contact {
	return Contact{Name: cu.Name, Phone: cu.Phone, Email: cu.Email}
}

// Contact is the private contact record that bookings snapshot and disclose.
type Contact struct {
	Name  string `firestore:"name,omitempty" json:"name,omitempty"`
	Phone string `firestore:"phone,omitempty" json:"phone,omitempty"`
	Email string `firestore:"email,omitempty" json:"email,omitempty"`
}

func (c Contact) IsZero() bool { return c.Phone == "" && c.Email == "" }

// Merge fills empty fields of c from other.
func (c Contact) Merge(other Contact) Contact {
	if c.Name == "" {
		c.Name = other.Name
	}
	if c.Phone == "" {
		c.Phone = other.Phone
	}
	if c.Email == "" {
		c.Email = other.Email
	}
	return c
}

func (c *Contact) Trim() {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.ReplaceAll(strings.TrimSpace(c.Phone), " ", "")
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
}

type Profile struct {
	UID         string    `firestore:"uid" json:"uid"`
	Email       string    `firestore:"email,omitempty" json:"email,omitempty"`
	DisplayName string    `firestore:"displayName,omitempty" json:"displayName,omitempty"`
	Phone       string    `firestore:"phone,omitempty" json:"phone,omitempty"`
	FCMTokens   []string  `firestore:"fcmTokens,omitempty" json:"-"`
	CreatedAt   time.Time `firestore:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt   time.Time `firestore:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

func (p Profile) Contact() Contact {
	return Contact{Name: p.DisplayName, Phone: p.Phone, Email: p.Email}
}

type UpdateProfileInput struct {
	DisplayName *string `json:"displayName,omitempty"`
	Phone       *string `json:"phone,omitempty"`
}

func (in *UpdateProfileInput) Trim() {
	if in.DisplayName != nil {
		v := strings.TrimSpace(*in.DisplayName)
		in.DisplayName = &v
	}
	if in.Phone != nil {
		v := strings.ReplaceAll(strings.TrimSpace(*in.Phone), " ", "")
		in.Phone = &v
	}
}

// IsAdmin checks the custom claims set by cmd/set-claims.
func IsAdmin(claims map[string]any) bool {
	if claims == nil {
		return false
	}
	if admin, ok := claims["admin"].(bool); ok && admin {
		return true
	}
	if role, ok := claims["role"].(string); ok && role == "admin" {
		return true
	}
	if roles, ok := claims["roles"].([]interface{}); ok {
		for _, r := range roles {
			if str, ok := r.(string); ok && str == "admin" {
				return true
			}
		}
	}
	return false
}
