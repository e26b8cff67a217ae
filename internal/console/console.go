// Package console keeps Ctrl+C working on Windows consoles and tells a
// double-clicked start from a terminal start. Elsewhere os.Interrupt is
// enough and the program always runs from a terminal.
package console

import "strings"

// isExplorerExe reports whether the image path names explorer.exe.
func isExplorerExe(path string) bool {
	if i := strings.LastIndexAny(path, `\/`); i >= 0 {
		path = path[i+1:]
	}
	return strings.EqualFold(path, "explorer.exe")
}
