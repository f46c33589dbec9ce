package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// Cors allows the renderer to call the API from its dev server. Only
// loopback origins are accepted.
func Cors() Middleware {
	options := cors.Options{
		AllowOriginFunc: isLoopbackOrigin,
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{requestIDHeader},
	}
	return cors.New(options).Handler
}
