package middleware

import "net/http"

// DefaultMaxRequestSize is the default request body cap (1MB). The vault
// handler applies its own tighter payload limit on top of this.
const DefaultMaxRequestSize int64 = 1 << 20

// MaxRequestSize rejects oversized bodies up front and caps reads on the
// rest, so a lying Content-Length cannot slip past the check.
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			defer r.Body.Close()

			next.ServeHTTP(w, r)
		})
	}
}
