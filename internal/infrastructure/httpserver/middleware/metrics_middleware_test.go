package middleware

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRouteResource(t *testing.T) {
	tests := map[string]string{
		"/api/v1/contracts":                    "contracts",
		"/api/v1/contracts/:id/signing/submit": "contracts",
		"/api/v1/notifications/stream":         "notifications",
		"/api/v1/focus":                        "focus",
		"/health":                              "health",
		"/metrics":                             "metrics",
		"":                                     "unmatched",
		"/":                                    "unmatched",
	}
	for route, want := range tests {
		require.Equal(t, want, routeResource(route), route)
	}
}
