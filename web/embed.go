// Package web holds the default site served when no descriptor and content
// directory are configured.
package web

import (
	"embed"
	"io/fs"
)

// DescriptorName is the name of the menu descriptor inside Content.
const DescriptorName = "menu.xml"

//go:embed menu.xml content_*
var contentFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Content returns the file system holding the descriptor and the page fragments.
func Content() fs.FS {
	return contentFS
}

// Static returns the file system holding the stylesheet and images.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
