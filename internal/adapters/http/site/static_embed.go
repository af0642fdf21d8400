package site

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
)

// ErrServe is reported when the embedded page cannot be read.
var ErrServe = errors.New("dashboard page serve failed")

//go:embed static/*
var staticFS embed.FS

// FS returns an http.FileSystem rooted at the embedded static directory.
func FS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return http.FS(staticFS)
	}
	return http.FS(sub)
}
