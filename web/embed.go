// Package web embeds the single-page front-end served at the site root.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var staticFiles embed.FS

// GetStaticFS returns the embedded static assets rooted at the static
// directory.
func GetStaticFS() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
