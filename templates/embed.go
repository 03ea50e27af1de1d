// Package templates embeds the HTML views.
package templates

import "embed"

//go:embed *.html
var FS embed.FS
