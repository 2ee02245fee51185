// Package web embeds the player UI assets so the binary ships self-contained.
package web

import "embed"

// TemplatesFS holds the layout and page templates.
//
//go:embed all:templates
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and player script.
//
//go:embed all:static
var StaticFS embed.FS
