package remote

import (
	"context"
	"net/http"
	"time"

	"github.com/glowempire/storefront/internal/localstore"
	"github.com/glowempire/storefront/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type passwordGrant struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string      `json:"access_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int         `json:"expires_in"`
	ExpiresAt    int64       `json:"expires_at"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"user"`
}

// tokenExpiry reads the exp claim without verifying the signature; the
// backend verifies tokens, the client only needs to know when to drop one.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func (c *SupabaseClient) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	resp, err := c.call(ctx, AreaAuth, "sign_in", c.cfg.Timeout, func(r *resty.Request) (*resty.Response, error) {
		return r.SetQueryParam("grant_type", "password").
			SetBody(passwordGrant{Email: email, Password: password}).
			Post("/auth/v1/token")
	})
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		log.WithField("email", email).Warn("Sign-in refused")
		return nil, errors.Wrap(ErrAuthFailed, errorMessage(resp))
	}

	var tok tokenResponse
	if err := decode(resp, AreaAuth, "sign_in", &tok); err != nil {
		return nil, err
	}

	session := &models.Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresIn:    tok.ExpiresIn,
		User:         tok.User,
	}
	switch exp, ok := tokenExpiry(tok.AccessToken); {
	case ok:
		session.ExpiresAt = exp
	case tok.ExpiresAt > 0:
		session.ExpiresAt = time.Unix(tok.ExpiresAt, 0)
	case tok.ExpiresIn > 0:
		session.ExpiresAt = c.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}

	c.mu.Lock()
	c.setSessionLocked(ctx, session)
	c.emitLocked(SessionEvent{Kind: SessionSignedIn, Session: copySession(session)})
	c.mu.Unlock()

	log.WithField("user", session.User.Email).Info("Signed in")
	return copySession(session), nil
}

// SignOut revokes the token remotely and always drops the local session,
// even when the backend cannot be reached.
func (c *SupabaseClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	signedIn := c.session != nil
	c.mu.Unlock()
	if !signedIn {
		return nil
	}

	resp, err := c.call(ctx, AreaAuth, "sign_out", c.cfg.Timeout, func(r *resty.Request) (*resty.Response, error) {
		return r.Post("/auth/v1/logout")
	})
	if err == nil && resp.IsError() && resp.StatusCode() != http.StatusUnauthorized && resp.StatusCode() != http.StatusNotFound {
		log.WithField("status", resp.StatusCode()).Warn("Logout refused by backend; dropping local session anyway")
	}

	c.mu.Lock()
	c.setSessionLocked(ctx, nil)
	c.emitLocked(SessionEvent{Kind: SessionSignedOut})
	c.mu.Unlock()

	log.Info("Signed out")
	return err
}

func (c *SupabaseClient) CurrentSession(ctx context.Context) (*models.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil && !c.restored && c.cfg.Sessions != nil {
		c.restored = true

		var saved models.Session
		err := localstore.Load(ctx, c.cfg.Sessions, localstore.KeySession, &saved)
		switch {
		case err == nil && !saved.Expired(c.now()):
			c.setSessionLocked(ctx, &saved)
			c.emitLocked(SessionEvent{Kind: SessionRestored, Session: copySession(&saved)})
			log.WithField("user", saved.User.Email).Info("Session restored")
		case err == nil:
			_ = c.cfg.Sessions.Delete(ctx, localstore.KeySession)
		case !errors.Is(err, localstore.ErrNotFound):
			log.WithError(err).Warn("Discarding unreadable saved session")
			_ = c.cfg.Sessions.Delete(ctx, localstore.KeySession)
		}
	}

	if c.session != nil && c.session.Expired(c.now()) {
		c.setSessionLocked(ctx, nil)
		c.emitLocked(SessionEvent{Kind: SessionExpired})
	}

	return copySession(c.session), nil
}

func (c *SupabaseClient) OnSessionChange(fn func(SessionEvent)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// setSessionLocked swaps the live session, persists it and re-arms the
// expiry timer. Callers hold c.mu.
func (c *SupabaseClient) setSessionLocked(ctx context.Context, s *models.Session) {
	c.stopExpiryLocked()
	c.session = s

	if c.cfg.Sessions != nil {
		var err error
		if s == nil {
			err = c.cfg.Sessions.Delete(ctx, localstore.KeySession)
		} else {
			err = localstore.Save(ctx, c.cfg.Sessions, localstore.KeySession, s)
		}
		if err != nil {
			log.WithError(err).Warn("Failed to persist session")
		}
	}

	if s == nil || s.ExpiresAt.IsZero() {
		return
	}

	token := s.AccessToken
	c.expiry = time.AfterFunc(s.ExpiresAt.Sub(c.now()), func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.session == nil || c.session.AccessToken != token {
			return
		}
		log.WithField("user", c.session.User.Email).Info("Session expired")
		c.setSessionLocked(context.Background(), nil)
		c.emitLocked(SessionEvent{Kind: SessionExpired})
	})
}

func (c *SupabaseClient) stopExpiryLocked() {
	if c.expiry != nil {
		c.expiry.Stop()
		c.expiry = nil
	}
}

// emitLocked hands ev to every listener on its own goroutine
func (c *SupabaseClient) emitLocked(ev SessionEvent) {
	for _, fn := range c.listeners {
		go fn(ev)
	}
}

func copySession(s *models.Session) *models.Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
