// Package web embeds the built console UI.
package web

import "embed"

//go:embed dist
var Assets embed.FS
