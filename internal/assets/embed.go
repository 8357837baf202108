package assets

import "embed"

//go:embed templates/*.md
var Templates embed.FS

//go:embed web/*.html
var Web embed.FS
