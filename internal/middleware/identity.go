package middleware

// identity.go holds the helpers shared across middleware files for storing
// and reading the authenticated principal on the Echo context.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/model"
)

const identityKey = "identity"

// SetIdentity stores id on the context. It also records the user id under
// "user_id" for the rate limiter key.
func SetIdentity(c echo.Context, id model.Identity) {
	c.Set(identityKey, id)
	c.Set("user_id", strconv.FormatUint(id.ID, 10))
}

// CurrentIdentity returns the principal set by JWTAuth or OptionalJWT.
func CurrentIdentity(c echo.Context) (model.Identity, bool) {
	id, ok := c.Get(identityKey).(model.Identity)
	return id, ok && id.ID != 0
}

// currentUserID returns the user id for keys, or "anon" when no user is
// authenticated.
func currentUserID(c echo.Context) string {
	if s, ok := c.Get("user_id").(string); ok && s != "" {
		return s
	}
	return "anon"
}
