package middleware

import (
	"net"
	"net/http"

	"github.com/mssola/useragent"

	"knowledgehub/pkg/requestcontext"
)

// ClientMetadata extracts the caller's IP and a compact browser/OS summary
// from the User-Agent header. Audit entries carry the summary in their details
// so history review can tell a script apart from a browser session.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.Header.Get("X-Forwarded-For")
		if ip == "" {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err == nil {
				ip = host
			} else {
				ip = r.RemoteAddr
			}
		}

		summary := ""
		if rawUA := r.Header.Get("User-Agent"); rawUA != "" {
			ua := useragent.New(rawUA)
			name, version := ua.Browser()
			summary = name + " " + version + " (" + ua.OS() + ")"
			if ua.Bot() {
				summary = "bot: " + name
			}
		}

		ctx := requestcontext.WithClientMetadata(r.Context(), ip, summary)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
