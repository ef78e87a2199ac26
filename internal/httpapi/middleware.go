package httpapi

import (
	"net/http"
	"strings"
)

// bearerToken pulls the credential from the Authorization header, falling
// back to the bare token header older clients still send.
func bearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimPrefix(authz, "Bearer ")
	}
	return r.Header.Get("token")
}
