// Package authmw authenticates API requests from bearer tokens and exposes
// the caller's identity to gin handlers under the kc.* context keys.
package authmw

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleManager      = "manager"
	RoleCollaborator = "collaborator"
	RoleAdmin        = "admin"
)

// context keys set by RequireRoles
const (
	KeyAccessToken = "kc.access_token"
	KeyUsername    = "kc.username"
	KeyEmail       = "kc.email"
	KeyRoles       = "kc.roles"
	KeySubject     = "kc.sub"
	KeyName        = "kc.name"
)

type Auth struct {
	Issuer   string // e.g. http://localhost:8080/realms/pms
	Audience string
	ClientID string // for client roles under resource_access[ClientID].roles

	Keyfunc jwt.Keyfunc
	Methods []string
	Leeway  time.Duration
}

// NewKeycloakAuth validates RS256 tokens against the realm JWKS. Build once at
// startup, the key set refreshes in the background.
func NewKeycloakAuth(jwksURL, issuer, audience, clientID string) (*Auth, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval:  time.Hour,
		RefreshRateLimit: time.Minute * 5,
		RefreshTimeout:   time.Second * 10,
	})
	if err != nil {
		return nil, err
	}

	return &Auth{
		Issuer:   issuer,
		Audience: audience,
		ClientID: clientID,
		Keyfunc:  jwks.Keyfunc,
		Methods:  []string{"RS256"},
		Leeway:   30 * time.Second,
	}, nil
}

// NewHMACAuth validates HS256 tokens signed with a shared secret.
func NewHMACAuth(secret, issuer, audience string) (*Auth, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	key := []byte(secret)
	return &Auth{
		Issuer:   issuer,
		Audience: audience,
		Keyfunc: func(t *jwt.Token) (any, error) {
			return key, nil
		},
		Methods: []string{"HS256"},
		Leeway:  30 * time.Second,
	}, nil
}

type Claims struct {
	jwt.RegisteredClaims

	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	Name              string `json:"name"`

	RealmAccess struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`

	ResourceAccess map[string]struct {
		Roles []string `json:"roles"`
	} `json:"resource_access"`
}

// RequireRoles authenticates the request and lets it through when the caller
// holds any of the given roles. With no roles, any valid token passes.
func (a *Auth) RequireRoles(anyOf ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := extractAccessToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		claims := &Claims{}
		opts := []jwt.ParserOption{
			jwt.WithLeeway(a.Leeway),
			jwt.WithValidMethods(a.Methods),
		}
		if a.Issuer != "" {
			opts = append(opts, jwt.WithIssuer(a.Issuer))
		}
		if a.Audience != "" {
			opts = append(opts, jwt.WithAudience(a.Audience))
		}
		if _, err = jwt.ParseWithClaims(tokenStr, claims, a.Keyfunc, opts...); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		roles := collectRoles(claims, a.ClientID)

		c.Set(KeyAccessToken, tokenStr)
		c.Set(KeyUsername, claims.PreferredUsername)
		c.Set(KeyEmail, strings.ToLower(claims.Email))
		c.Set(KeyRoles, roles)
		c.Set(KeySubject, claims.Subject)
		c.Set(KeyName, claims.Name)

		if len(anyOf) > 0 && !hasAnyRole(roles, anyOf...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}

		c.Next()
	}
}

// Email returns the authenticated caller's email.
func Email(c *gin.Context) string {
	return c.GetString(KeyEmail)
}

func Roles(c *gin.Context) []string {
	return c.GetStringSlice(KeyRoles)
}

func HasRole(c *gin.Context, anyOf ...string) bool {
	return hasAnyRole(Roles(c), anyOf...)
}

// --- helpers ---

func extractAccessToken(c *gin.Context) (string, error) {
	authz := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[7:]), nil
	}

	if cookie, err := c.Cookie("access_token"); err == nil && cookie != "" {
		return cookie, nil
	}

	return "", errors.New("missing access token")
}

func collectRoles(claims *Claims, clientID string) []string {
	out := make([]string, 0, 16)

	out = append(out, claims.RealmAccess.Roles...)

	if clientID != "" && claims.ResourceAccess != nil {
		if ra, ok := claims.ResourceAccess[clientID]; ok {
			out = append(out, ra.Roles...)
		}
	}

	return uniq(out)
}

func hasAnyRole(userRoles []string, anyOf ...string) bool {
	roleSet := make(map[string]struct{}, len(userRoles))
	for _, r := range userRoles {
		roleSet[r] = struct{}{}
	}
	for _, required := range anyOf {
		if _, ok := roleSet[required]; ok {
			return true
		}
	}
	return false
}

func uniq(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
