package server

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/cruciblehq/crucible/web"
)

// spaHandler serves the embedded console assets. Requests that don't name an
// embedded file fall through to index.html so client-side routes resolve.
func spaHandler() http.Handler {
	dist, _ := fs.Sub(web.Assets, "dist")
	files := http.FileServer(http.FS(dist))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		if name != "" {
			if _, err := fs.Stat(dist, name); err == nil {
				files.ServeHTTP(w, r)
				return
			}
		}

		r.URL.Path = "/"
		files.ServeHTTP(w, r)
	})
}
