package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/golang-jwt/jwt/v4"
)

// CookieName is the name of the web session cookie.
const CookieName = "mixtape_session"

// Claims carried by the session cookie. The subject is the Spotify user id.
type Claims struct {
	RefreshToken string `json:"refresh_token"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session cookies with HS256.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec creates a [Codec]. An empty secret is rejected.
func NewCodec(secret string, ttl time.Duration) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: session secret", shared.ErrMissingConfig)
	}
	return &Codec{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for userID holding refreshToken.
func (c *Codec) Issue(userID, refreshToken string) (string, error) {
	now := c.now()
	claims := Claims{
		RefreshToken: refreshToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Parse verifies raw and returns its claims.
func (c *Codec) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, err)
	}
	if !token.Valid || claims.Subject == "" || claims.RefreshToken == "" {
		return nil, fmt.Errorf("%w: incomplete session", shared.ErrNotAuthenticated)
	}
	return claims, nil
}

// Cookie wraps a signed token in the session cookie.
func (c *Codec) Cookie(token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie expires the session cookie.
func (c *Codec) ClearCookie() *http.Cookie {
	return &http.Cookie{Name: CookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true}
}

// FromRequest reads and verifies the session cookie on r.
func (c *Codec) FromRequest(r *http.Request) (*Claims, error) {
	cookie, err := r.Cookie(CookieName)
	if errors.Is(err, http.ErrNoCookie) {
		return nil, shared.ErrNotAuthenticated
	} else if err != nil {
		return nil, err
	}
	return c.Parse(cookie.Value)
}
