package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/bitguard/internal/common"
	"github.com/dmitrijs2005/bitguard/internal/server/auth"
)

// requireExportToken admits only requests bearing a valid key:export token
// that has not been used before.
func (s *HTTPServer) requireExportToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		header := r.Header.Get(common.ExportTokenHeaderName)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.logger.Warn(ctx, "key export refused", "reason", "missing token", "remote", r.RemoteAddr)
			s.writeError(ctx, w, common.ErrorUnauthorized)
			return
		}

		claims, err := auth.VerifyExportToken(token, s.jwtSecret)
		if err == nil {
			err = s.usedTokens.Consume(claims)
		}
		if err != nil {
			s.logger.Warn(ctx, "key export refused", "reason", err.Error(), "remote", r.RemoteAddr)
			s.writeError(ctx, w, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// accessLog records method, route and outcome. Bodies and headers are never
// logged since they carry passwords.
func (s *HTTPServer) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
