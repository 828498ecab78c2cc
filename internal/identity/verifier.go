// Package identity authenticates requests against the external identity
// provider. Credential verification itself is fully delegated; this package
// only validates the session token, resolves the caller's profile and gates
// admin-only routes by the configured administrator email.
package identity

import (
	"net/http"
	"strings"
	"time"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/clerk/clerk-sdk-go/v2/user"
	"github.com/sirupsen/logrus"

	"cadenza/internal/apperr"
	"cadenza/internal/config"
)

// Profile is the verified caller: provider user id and the primary email the
// admin gate compares against.
type Profile struct {
	ID           string
	FullName     string
	PrimaryEmail string
	ImageURL     string
}

// Verifier validates session tokens and resolves profiles.
type Verifier struct {
	adminEmail string
	cache      *profileCache
	logger     *logrus.Logger
}

// NewVerifier configures the provider SDK and returns a verifier. adminEmail
// is the single configured administrator address.
func NewVerifier(cfg config.ClerkConfig, adminEmail string, logger *logrus.Logger) *Verifier {
	clerk.SetKey(cfg.SecretKey)

	return &Verifier{
		adminEmail: adminEmail,
		cache:      newProfileCache(5 * time.Minute),
		logger:     logger,
	}
}

// FromRequest verifies the request's session token and returns the caller's
// profile. Returns a 401-equivalent error when the token is missing or
// invalid.
func (v *Verifier) FromRequest(r *http.Request) (*Profile, error) {
	token := sessionToken(r)
	if token == "" {
		return nil, apperr.Unauthorized("Unauthorized - you must be logged in")
	}

	claims, err := jwt.Verify(r.Context(), &jwt.VerifyParams{Token: token})
	if err != nil {
		return nil, apperr.Wrap(apperr.Unauthorized("Unauthorized - invalid session"), err)
	}

	if profile, ok := v.cache.get(claims.Subject); ok {
		return profile, nil
	}

	usr, err := user.Get(r.Context(), claims.Subject)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unauthorized("Unauthorized - unknown user"), err)
	}

	profile := &Profile{
		ID:           usr.ID,
		FullName:     joinName(usr.FirstName, usr.LastName),
		PrimaryEmail: primaryEmail(usr),
	}
	if usr.ImageURL != nil {
		profile.ImageURL = *usr.ImageURL
	}

	v.cache.set(profile.ID, profile)
	return profile, nil
}

// RequireAdmin verifies the caller and checks their primary email against the
// configured administrator address. Returns a 403-equivalent error for
// signed-in non-admins.
func (v *Verifier) RequireAdmin(r *http.Request) (*Profile, error) {
	profile, err := v.FromRequest(r)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(profile.PrimaryEmail, v.adminEmail) {
		v.logger.WithFields(logrus.Fields{
			"user_id": profile.ID,
			"path":    r.URL.Path,
		}).Warn("Non-admin attempted admin route")
		return nil, apperr.Forbidden("Unauthorized - you must be an admin")
	}

	return profile, nil
}

// sessionToken pulls the session token from the Authorization header or the
// provider's session cookie.
func sessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if cookie, err := r.Cookie("__session"); err == nil {
		return cookie.Value
	}
	return ""
}

// primaryEmail resolves the address marked primary on the provider profile,
// falling back to the first address on record.
func primaryEmail(usr *clerk.User) string {
	if usr.PrimaryEmailAddressID != nil {
		for _, email := range usr.EmailAddresses {
			if email.ID == *usr.PrimaryEmailAddressID {
				return email.EmailAddress
			}
		}
	}
	if len(usr.EmailAddresses) > 0 {
		return usr.EmailAddresses[0].EmailAddress
	}
	return ""
}

func joinName(first, last *string) string {
	var parts []string
	if first != nil && *first != "" {
		parts = append(parts, *first)
	}
	if last != nil && *last != "" {
		parts = append(parts, *last)
	}
	return strings.Join(parts, " ")
}
