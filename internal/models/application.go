package models

import (
	"encoding/base32"
	"strings"
	"time"

	"github.com/go-authgate/oidcgate/internal/util"

	"golang.org/x/crypto/bcrypt"
)

// Base32 characters, but lowercased.
const lowerBase32Chars = "abcdefghijklmnopqrstuvwxyz234567"

// base32 encoder that uses lowered characters without padding.
var base32Lower = base32.NewEncoding(lowerBase32Chars).WithPadding(base32.NoPadding)

const (
	ClientTypeConfidential = "confidential"
	ClientTypePublic       = "public"

	// PermissionGrantTypePrefix prefixes grant type permissions, e.g. "gt:password".
	PermissionGrantTypePrefix = "gt:"
)

// GrantTypePermission returns the permission string for a grant type.
func GrantTypePermission(grantType string) string {
	return PermissionGrantTypePrefix + grantType
}

// Application is a registered relying party. The authority only reads it.
type Application struct {
	ID                     int64       `gorm:"primaryKey;autoIncrement"`
	ClientID               string      `gorm:"uniqueIndex;not null"`
	ClientSecret           string      // bcrypt hashed secret; empty for public clients
	DisplayName            string      `gorm:"not null"`
	ClientType             string      `gorm:"not null;default:'confidential'"`
	Permissions            StringArray `gorm:"type:json"`
	RedirectURIs           StringArray `gorm:"type:json"`
	PostLogoutRedirectURIs StringArray `gorm:"type:json"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// GenerateClientSecret will generate the client secret and returns the plaintext and saves the hash at the database
func (app *Application) GenerateClientSecret() (string, error) {
	rBytes, err := util.CryptoRandomBytes(32)
	if err != nil {
		return "", err
	}
	// Prefixed so secret scanners can spot leaked values.
	clientSecret := "oidc_" + base32Lower.EncodeToString(rBytes)
	if err := app.SetClientSecret(clientSecret); err != nil {
		return "", err
	}
	return clientSecret, nil
}

// SetClientSecret hashes and stores a known plaintext secret.
func (app *Application) SetClientSecret(secret string) error {
	hashedSecret, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	app.ClientSecret = string(hashedSecret)
	return nil
}

// ValidateClientSecret validates the given secret by the hash saved in database
func (app *Application) ValidateClientSecret(secret []byte) bool {
	if app.ClientSecret == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(app.ClientSecret), secret) == nil
}

func (app *Application) IsConfidential() bool {
	return app.ClientType != ClientTypePublic
}

// HasPermission reports whether the permission string is registered.
func (app *Application) HasPermission(permission string) bool {
	return app.Permissions.Contains(permission)
}

// HasRedirectURI requires an exact match, as OAuth 2.0 Security BCP recommends.
func (app *Application) HasRedirectURI(uri string) bool {
	return uri != "" && app.RedirectURIs.Contains(uri)
}

func (app *Application) HasPostLogoutRedirectURI(uri string) bool {
	return uri != "" && app.PostLogoutRedirectURIs.Contains(strings.TrimSpace(uri))
}

// TableName overrides the table name used by Application to `oauth_applications`
func (Application) TableName() string {
	return "oauth_applications"
}

// Scope is a registered scope and the resource servers it grants access to.
type Scope struct {
	ID          int64       `gorm:"primaryKey;autoIncrement"`
	Name        string      `gorm:"uniqueIndex;not null"`
	Description string      `gorm:"type:text"`
	Resources   StringArray `gorm:"type:json"`
}

// TableName overrides the table name used by Scope to `oauth_scopes`
func (Scope) TableName() string {
	return "oauth_scopes"
}
