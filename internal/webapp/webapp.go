// Package webapp serves the embedded browser frontend. The frontend is
// a few static files, all chart data comes pre-aggregated from the
// chart endpoints, so there is no build step and no bundler.
package webapp

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var staticFS embed.FS

func Handler() http.Handler {
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		// the embedded tree is fixed at compile time
		panic(err)
	}
	return http.FileServer(http.FS(static))
}
