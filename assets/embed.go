// assets/embed.go
//
// Static files compiled into the binary:
//   - catalog.yaml: the built-in song catalog.
//   - index.html:   the single-page browser UI.

package assets

import (
	"embed"
)

//go:embed catalog.yaml index.html
var FS embed.FS

// CatalogYAML returns the built-in catalog document.
func CatalogYAML() ([]byte, error) {
	return FS.ReadFile("catalog.yaml")
}

// IndexHTML returns the browser UI page.
func IndexHTML() ([]byte, error) {
	return FS.ReadFile("index.html")
}
