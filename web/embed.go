// Package web holds the static front-end served at the root path.
package web

import "embed"

// Files contains the page, its stylesheet and its script.
//
//go:embed index.html style.css script.js
var Files embed.FS
