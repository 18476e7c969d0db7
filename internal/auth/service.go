package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"nexamediaserver/internal/apperrors"
)

// Policy is an authorization requirement gating an endpoint, per §4.F.
type Policy int

const (
	// PolicyAuthenticated suffices for reads.
	PolicyAuthenticated Policy = iota
	// PolicyAdministrator gates write endpoints that affect the server.
	PolicyAdministrator
)

// Service implements Login/Refresh/Logout and request authentication,
// built on the teacher's bcrypt + JWT pattern.
type Service struct {
	store       Store
	issuer      *TokenIssuer
	lifetime    time.Duration
	refreshLife time.Duration
}

// DefaultLifetimeDays is the session expiry default from §4.F.
const DefaultLifetimeDays = 30

func NewService(store Store, issuer *TokenIssuer, lifetimeDays int) *Service {
	if lifetimeDays <= 0 {
		lifetimeDays = DefaultLifetimeDays
	}
	lifetime := time.Duration(lifetimeDays) * 24 * time.Hour
	return &Service{store: store, issuer: issuer, lifetime: lifetime, refreshLife: lifetime}
}

// AuthResult is returned from Login/Refresh: the bearer token plus session
// metadata a handler needs to also set a cookie for cookie-bound sessions.
type AuthResult struct {
	AccessToken      string
	SessionPublicID  string
	ExpiresAt        time.Time
}

// Login verifies credentials, upserts the Device for (user, identifier),
// creates a Session that expires after LifetimeDays when remember is set
// and after 24 hours otherwise, and issues a bearer token.
func (s *Service) Login(email, password string, device DeviceRegistration, remember bool) (*AuthResult, error) {
	user, err := s.store.FindUserByEmail(email)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Unauthenticated, err, "invalid credentials")
	}
	if user == nil || !user.CheckPassword(password) {
		return nil, apperrors.New(apperrors.Unauthenticated, "invalid credentials")
	}

	dev, err := s.store.FindOrCreateDevice(user.ID, device)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "registering device")
	}

	lifetime := s.lifetime
	if !remember {
		lifetime = 24 * time.Hour
	}
	now := time.Now()
	session := &Session{
		PublicID:   uuid.NewString(),
		UserID:     user.ID,
		DeviceID:   dev.ID,
		IssuedAt:   now,
		ExpiresAt:  now.Add(lifetime),
		LastUsedAt: now,
	}
	if err := s.store.CreateSession(session); err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "creating session")
	}

	token, err := s.issuer.Issue(user.ID, session.PublicID, session.ExpiresAt)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "issuing token")
	}

	return &AuthResult{AccessToken: token, SessionPublicID: session.PublicID, ExpiresAt: session.ExpiresAt}, nil
}

// Refresh extends the session bound to accessToken's claims and issues a
// new access token, per §4.F.
func (s *Service) Refresh(accessToken string) (*AuthResult, error) {
	claims, err := s.issuer.Parse(accessToken)
	if err != nil {
		return nil, unauthorizedInvalidToken()
	}

	session, err := s.store.FindSessionByPublicID(claims.SessionID)
	if err != nil || session == nil {
		return nil, unauthorizedInvalidToken()
	}
	if session.Revoked {
		return nil, unauthorizedRevoked()
	}

	now := time.Now()
	session.ExpiresAt = now.Add(s.refreshLife)
	session.LastUsedAt = now
	if err := s.store.UpdateSession(session); err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "updating session")
	}

	token, err := s.issuer.Issue(session.UserID, session.PublicID, session.ExpiresAt)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "issuing token")
	}
	return &AuthResult{AccessToken: token, SessionPublicID: session.PublicID, ExpiresAt: session.ExpiresAt}, nil
}

// Logout revokes the session bound to accessToken.
func (s *Service) Logout(accessToken string) error {
	claims, err := s.issuer.Parse(accessToken)
	if err != nil {
		return nil // an already-invalid token has nothing to revoke
	}
	return s.store.RevokeSession(claims.SessionID)
}

// Authenticate validates accessToken and returns the identity it
// represents, per the invariant in §8: "no request validated against a
// revoked or expired session returns 2xx."
func (s *Service) Authenticate(accessToken string) (userID uint64, sessionPublicID string, err error) {
	claims, err := s.issuer.Parse(accessToken)
	if err != nil {
		return 0, "", unauthorizedInvalidToken()
	}
	session, err := s.store.FindSessionByPublicID(claims.SessionID)
	if err != nil || session == nil {
		return 0, "", unauthorizedInvalidToken()
	}
	if !session.Valid(time.Now()) {
		return 0, "", unauthorizedRevoked()
	}
	return claims.UserID, session.PublicID, nil
}

// Authorize checks policy against the authenticated user's admin flag.
func (s *Service) Authorize(policy Policy, user *User) error {
	if policy == PolicyAdministrator && !user.IsAdmin {
		return apperrors.New(apperrors.Forbidden, "administrator role required")
	}
	return nil
}

// WWWAuthenticate renders the RFC 6750 challenge header value for err,
// per §6: "On 401, WWW-Authenticate MUST carry Bearer error=\"…\",
// error_description=\"…\"."
func WWWAuthenticate(err error) string {
	appErr := apperrors.KindOf(err)
	code := "invalid_token"
	desc := "the access token is invalid"
	if appErr == apperrors.Unauthenticated {
		desc = "invalid credentials"
	}
	return fmt.Sprintf(`Bearer error=%q, error_description=%q`, code, desc)
}

func unauthorizedInvalidToken() error {
	return apperrors.New(apperrors.Unauthenticated, "invalid_token")
}

func unauthorizedRevoked() error {
	return apperrors.New(apperrors.Unauthenticated, "session revoked or expired")
}
