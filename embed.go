package main

import (
	"embed"
	"io/fs"
)

//go:embed frontend
var frontendFiles embed.FS

// frontendFS returns the controller diagram page, rooted at frontend/.
func frontendFS() fs.FS {
	sub, err := fs.Sub(frontendFiles, "frontend")
	if err != nil {
		panic(err)
	}
	return sub
}
