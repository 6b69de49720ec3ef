package idom

import (
	"embed"
	"io/fs"
)

//go:embed assets/*.html assets/*.yaml
var embeddedAssets embed.FS

// ExamplesFS exposes the sample documents and driver script shipped under
// assets/ so the CLI and examples can run without files on disk.
//
//	doc, _ := fs.ReadFile(idom.ExamplesFS(), "card.html")
func ExamplesFS() fs.FS {
	sub, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		return embeddedAssets
	}
	return sub
}
