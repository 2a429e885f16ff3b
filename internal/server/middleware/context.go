package middleware

import "github.com/gin-gonic/gin"

const (
	identityKey = "auth.identity"
	tokenKey    = "auth.token"
)

// Identity is the authenticated caller attached to the request context.
// Fields come from the actor row except UserType, which is read from the
// verified token claims and may lag the directory until the next refresh.
type Identity struct {
	ActorID   int64
	Email     string
	Name      string
	Surname   string
	Role      string
	UserType  string
	SessionID string
}

// SetIdentity attaches the identity and the raw access token to the request.
func SetIdentity(c *gin.Context, ident *Identity, rawToken string) {
	c.Set(identityKey, ident)
	c.Set(tokenKey, rawToken)
}

// IdentityFrom returns the authenticated identity, if any.
func IdentityFrom(c *gin.Context) (*Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	ident, ok := v.(*Identity)
	return ident, ok && ident != nil
}

// AccessToken returns the raw bearer token of the request, or "".
func AccessToken(c *gin.Context) string {
	v, ok := c.Get(tokenKey)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
