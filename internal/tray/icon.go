package tray

import _ "embed"

//go:embed icon.ico
var icon []byte

// Icon is the tray icon: a green controller silhouette.
func Icon() []byte { return icon }
