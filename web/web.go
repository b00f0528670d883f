// Package web embeds the static storefront assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed index.html success.html cancel.html
var content embed.FS

// Files is the storefront file tree served at the HTTP root.
var Files fs.FS = content
