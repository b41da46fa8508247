package appfs

import "embed"

// FS embeds runtime assets; goose reads the migrations from here so the
// binaries stay self-contained.
//go:embed migrations
var FS embed.FS
