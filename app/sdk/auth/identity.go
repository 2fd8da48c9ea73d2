package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jcpaschoal/confmgmt/business/domain/servicebus"
)

// HeaderIdentity carries the identity assertion of the end user on whose
// behalf a service calls.
const HeaderIdentity = "X-Identity-Assertion"

// Claims represents the claims of an identity assertion.
type Claims struct {
	jwt.RegisteredClaims
	ServiceID string `json:"service_id"`
	Role      string `json:"role"`
}

var (
	errKIDMissing   = errors.New("kid missing from token header")
	errKIDMalformed = errors.New("kid in token header is malformed")
)

// verifyIdentity checks the assertion signature with the issuer key named
// by kid and that it was issued for svc.
func (a *Auth) verifyIdentity(assertion string, svc servicebus.Service) (Claims, error) {
	if a.keyLookup == nil {
		return Claims{}, errors.New("identity assertions are not configured")
	}

	var claims Claims
	_, err := a.parser.ParseWithClaims(assertion, &claims, func(t *jwt.Token) (any, error) {
		kidRaw, exists := t.Header["kid"]
		if !exists {
			return nil, errKIDMissing
		}

		kid, ok := kidRaw.(string)
		if !ok {
			return nil, errKIDMalformed
		}

		pem, err := a.keyLookup.PublicKey(kid)
		if err != nil {
			return nil, fmt.Errorf("fetching public key for kid %q: %w", kid, err)
		}

		return jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
	})
	if err != nil {
		return Claims{}, fmt.Errorf("validating assertion: %w", err)
	}

	if claims.ServiceID != svc.ID.String() {
		return Claims{}, fmt.Errorf("assertion issued for service %q", claims.ServiceID)
	}

	if claims.Subject == "" {
		return Claims{}, errors.New("assertion has no subject")
	}

	return claims, nil
}
