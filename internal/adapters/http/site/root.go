// Package site serves the embedded predictor page.
package site

import (
	"context"
	"net/http"
)

// Register attaches the embedded predictor page to mux at /.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	files := http.FileServer(FS())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
