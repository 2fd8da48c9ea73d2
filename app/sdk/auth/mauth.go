package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/business/domain/servicebus"
	"github.com/jcpaschoal/confmgmt/foundation/hmacsig"
)

// Scheme is the authorization scheme name.
const Scheme = "MAuth"

// SignatureMethod is the only supported signature method.
const SignatureMethod = "HMAC_SHA256"

// Header field names.
const (
	fieldRealm     = "realm"
	fieldMethod    = "mauth_signature_method"
	fieldServiceID = "mauth_serviceid"
	fieldCnonce    = "mauth_cnonce"
	fieldTimestamp = "mauth_timestamp"
	fieldSignature = "mauth_signature"
)

// Credentials are the fields of an MAuth authorization header.
type Credentials struct {
	Realm     string
	Method    string
	ServiceID uuid.UUID
	Cnonce    string
	Timestamp string
	Signature string
}

// Time returns the request timestamp, in unix milliseconds on the wire.
func (c Credentials) Time() (time.Time, error) {
	ms, err := strconv.ParseInt(c.Timestamp, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp: %w", err)
	}
	return time.UnixMilli(ms), nil
}

// String renders the credentials as an authorization header value.
func (c Credentials) String() string {
	method := c.Method
	if method == "" {
		method = SignatureMethod
	}

	fields := []string{
		fieldRealm + "=" + c.Realm,
		fieldMethod + "=" + method,
		fieldServiceID + "=" + c.ServiceID.String(),
		fieldCnonce + "=" + c.Cnonce,
		fieldTimestamp + "=" + c.Timestamp,
		fieldSignature + "=" + c.Signature,
	}

	return Scheme + " " + strings.Join(fields, ",")
}

// Sign returns credentials for service signed with secret. It is what a
// client does before every request.
func Sign(serviceID uuid.UUID, secret []byte, realm string, cnonce string, now time.Time) Credentials {
	ts := strconv.FormatInt(now.UnixMilli(), 10)

	return Credentials{
		Realm:     realm,
		Method:    SignatureMethod,
		ServiceID: serviceID,
		Cnonce:    cnonce,
		Timestamp: ts,
		Signature: hmacsig.Sign(secret, ts, cnonce),
	}
}

// ParseHeader parses an MAuth authorization header.
func ParseHeader(header string) (Credentials, error) {
	scheme, params, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, Scheme) {
		return Credentials{}, errors.New("expected authorization header format: MAuth <params>")
	}

	fields := make(map[string]string)
	for part := range strings.SplitSeq(params, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return Credentials{}, fmt.Errorf("param %q has no value", part)
		}

		key = strings.TrimSpace(key)
		if _, exists := fields[key]; exists {
			return Credentials{}, fmt.Errorf("param %q repeated", key)
		}
		fields[key] = strings.Trim(strings.TrimSpace(value), `"`)
	}

	if m, ok := fields[fieldMethod]; ok && m != SignatureMethod {
		return Credentials{}, fmt.Errorf("unsupported signature method %q", m)
	}

	for _, required := range []string{fieldServiceID, fieldCnonce, fieldTimestamp, fieldSignature} {
		if fields[required] == "" {
			return Credentials{}, fmt.Errorf("missing %s", required)
		}
	}

	serviceID, err := uuid.Parse(fields[fieldServiceID])
	if err != nil {
		return Credentials{}, fmt.Errorf("parse service id: %w", err)
	}

	creds := Credentials{
		Realm:     fields[fieldRealm],
		Method:    fields[fieldMethod],
		ServiceID: serviceID,
		Cnonce:    fields[fieldCnonce],
		Timestamp: fields[fieldTimestamp],
		Signature: fields[fieldSignature],
	}

	return creds, nil
}

// Authenticate verifies the MAuth authorization header and the optional
// identity assertion. Every verification failure returns
// ErrUnauthenticated; the reason is only logged.
func (a *Auth) Authenticate(ctx context.Context, authorization string, assertion string) (Caller, error) {
	creds, err := ParseHeader(authorization)
	if err != nil {
		return Caller{}, a.reject(ctx, "malformed", err)
	}

	if a.skew > 0 {
		ts, err := creds.Time()
		if err != nil {
			return Caller{}, a.reject(ctx, "malformed", err)
		}

		if d := time.Since(ts).Abs(); d > a.skew {
			return Caller{}, a.reject(ctx, "stale", fmt.Errorf("timestamp off by %s", d))
		}
	}

	svc, err := a.services.QueryByID(ctx, creds.ServiceID)
	if err != nil {
		if errors.Is(err, servicebus.ErrNotFound) {
			return Caller{}, a.reject(ctx, "unknown_service", err)
		}
		return Caller{}, fmt.Errorf("query service: %w", err)
	}

	secret, err := a.services.Secret(ctx, svc)
	if err != nil {
		return Caller{}, fmt.Errorf("open secret: %w", err)
	}

	if !hmacsig.Verify(secret, creds.Signature, creds.Timestamp, creds.Cnonce) {
		return Caller{}, a.reject(ctx, "signature", fmt.Errorf("signature mismatch for service %s", svc.ID))
	}

	if a.skew > 0 && a.nonces != nil {
		key := creds.ServiceID.String() + ":" + creds.Cnonce + ":" + creds.Timestamp

		fresh, err := a.nonces.Claim(ctx, key, 2*a.skew)
		if err != nil {
			return Caller{}, fmt.Errorf("claim nonce: %w", err)
		}

		if !fresh {
			return Caller{}, a.reject(ctx, "replay", fmt.Errorf("nonce %q already used", creds.Cnonce))
		}
	}

	caller := Caller{
		Service: svc,
	}

	if assertion != "" {
		claims, err := a.verifyIdentity(assertion, svc)
		if err != nil {
			return Caller{}, a.reject(ctx, "identity", err)
		}

		caller.User = claims.Subject
		caller.Role = claims.Role
	}

	return caller, nil
}
