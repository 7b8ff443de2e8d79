package auth

import (
	"strings"
)

var localOriginPrefixes = []string{
	"http://localhost",
	"http://127.0.0.1",
}

// AllowOriginFunc returns the CORS origin policy used by the front-ends:
// requests without an Origin (curl, mobile apps), any local dev server and
// the configured production origins are accepted.
func AllowOriginFunc(allowed []string) func(origin string) bool {
	exact := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			exact[o] = struct{}{}
		}
	}

	return func(origin string) bool {
		if origin == "" {
			return true
		}
		for _, prefix := range localOriginPrefixes {
			if strings.HasPrefix(origin, prefix) {
				return true
			}
		}
		_, ok := exact[strings.TrimRight(origin, "/")]
		return ok
	}
}
