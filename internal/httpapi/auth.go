package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/piquetdestream/piquet/internal/stream"
)

// ErrNoSecret is returned when tokens are issued or checked without a
// configured signing secret.
var ErrNoSecret = errors.New("jwt secret is not configured")

const principalKey = "principal"

// Claims is the JWT payload identifying a caller. Roles holds piquet role
// names; DiscordRoles holds Discord role ids resolved through the configured
// mapping.
type Claims struct {
	Roles        []string `json:"roles,omitempty"`
	DiscordRoles []string `json:"discord_roles,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies HS256 bearer tokens.
type Authenticator struct {
	secret  []byte
	mapping stream.RoleMapping
}

// NewAuthenticator creates an Authenticator signing with secret.
func NewAuthenticator(secret string, mapping stream.RoleMapping) *Authenticator {
	return &Authenticator{secret: []byte(secret), mapping: mapping}
}

// Issue mints a token for userID carrying roles, valid for ttl from now.
func (a *Authenticator) Issue(userID string, roles []stream.Role, ttl time.Duration, now time.Time) (string, error) {
	if len(a.secret) == 0 {
		return "", ErrNoSecret
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	claims := Claims{
		Roles: names,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "piquet",
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Parse verifies tokenStr and returns the principal it names.
func (a *Authenticator) Parse(tokenStr string) (stream.Principal, error) {
	if len(a.secret) == 0 {
		return stream.Principal{}, ErrNoSecret
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return stream.Principal{}, fmt.Errorf("invalid or expired token: %w", err)
	}
	if claims.Subject == "" {
		return stream.Principal{}, errors.New("token has no subject")
	}

	roles, err := stream.ParseRoles(claims.Roles)
	if err != nil {
		return stream.Principal{}, err
	}
	for _, r := range a.mapping.Resolve(claims.DiscordRoles) {
		if !slices.Contains(roles, r) {
			roles = append(roles, r)
		}
	}
	return stream.Principal{UserID: claims.Subject, Roles: roles}, nil
}

// Middleware resolves the bearer token into a principal stored on the
// context. Requests without an Authorization header run unauthenticated;
// a malformed or invalid token is rejected with 401.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Set(principalKey, stream.Principal{})
			c.Next()
			return
		}

		parts := strings.Split(header, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid Authorization header format"})
			return
		}

		p, err := a.Parse(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

func principalFrom(c *gin.Context) stream.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(stream.Principal); ok {
			return p
		}
	}
	return stream.Principal{}
}
