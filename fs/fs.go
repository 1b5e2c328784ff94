// Package appfs exposes the project's embedded files.
package appfs

import "embed"

//go:embed migrations
var FS embed.FS
