package middleware

import (
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/mkelcec/scalewatch/internal/auth"
)

// paths reachable without a session token
var publicPaths = map[string]bool{
	"/a/login":  true,
	"/a/logout": true,
	"/health":   true,
	"/version":  true,
}

func AuthMiddlewareHandler(loginChecker auth.Checker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, PUT, DELETE, OPTIONS")
				w.WriteHeader(http.StatusOK)
				return
			}

			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			// reads are public, mutations need auth
			if r.Method == http.MethodGet &&
				(strings.HasPrefix(r.URL.Path, "/dashboard") ||
					strings.HasPrefix(r.URL.Path, "/goal") ||
					strings.HasPrefix(r.URL.Path, "/annotations")) {
				next.ServeHTTP(w, r)
				return
			}

			authToken := r.Header.Get("X-SCALEWATCH-AUTH-TOKEN")
			if authToken == "" {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				return
			}

			isLogged, err := loginChecker.IsLogged(r.Context(), authToken)
			if err != nil {
				log.Tracef("[failed login check] => %s: %s", r.URL.Path, err)
				http.Error(w, "no can do", http.StatusUnauthorized)
				return
			}
			if !isLogged {
				log.Tracef("[invalid token] [auth middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
