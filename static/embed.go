// Package static embeds stylesheets, scripts and placeholder images.
package static

import "embed"

//go:embed css js images
var FS embed.FS
