package util

import (
	"net/http"
	"strings"
)

// prefixedWriter prepends the mount prefix to redirects which the mounted handler writes with an absolute path.
type prefixedWriter struct {
	http.ResponseWriter
	prefix string // without trailing slash
}

func (w prefixedWriter) WriteHeader(statusCode int) {
	// "//host/path" is a protocol-relative url, not a path
	if location := w.Header().Get("Location"); strings.HasPrefix(location, "/") && !strings.HasPrefix(location, "//") {
		w.Header().Set("Location", w.prefix+location)
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

// HandlePrefix mounts handler below prefix. The handler sees paths without the prefix, and its redirects get the prefix back.
func HandlePrefix(mux *http.ServeMux, prefix string, handler http.Handler) {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		mux.Handle("/", handler)
		return
	}
	mux.Handle(prefix+"/", http.StripPrefix(prefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(prefixedWriter{w, prefix}, r)
	})))
}
