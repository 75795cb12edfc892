package token

import (
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/go-authgate/oidcgate/internal/claims"

	"github.com/golang-jwt/jwt/v5"
)

// generateIDToken signs the claims destined for the identity token.
// Audience is the client id (OIDC Core 1.0 §2).
func (i *Issuer) generateIDToken(
	principal *claims.Principal,
	clientID, nonce, accessToken string,
	now time.Time,
) (string, error) {
	mc := jwt.MapClaims{}
	for k, v := range principal.Project(claims.IdentityToken) {
		mc[k] = v
	}
	mc["aud"] = clientID
	mc["at_hash"] = ComputeAtHash(accessToken)
	delete(mc, "nonce")
	if nonce != "" {
		mc["nonce"] = nonce
	}
	return i.sign(mc, TypeIdentity, now, now.Add(i.config.IDTokenExpiration))
}

// ComputeAtHash computes the at_hash claim value per OIDC Core 1.0 §3.3.2.11.
// at_hash = base64url( left-most 128 bits of SHA-256( ASCII(access_token) ) )
func ComputeAtHash(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return base64.RawURLEncoding.EncodeToString(sum[:16])
}
