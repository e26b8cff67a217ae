//go:build !((darwin || freebsd || linux || windows) && !android)

package sdlreader

import (
	"fmt"
	"runtime"
)

func load(string) (*library, error) {
	return nil, fmt.Errorf("no SDL3 binding on %s", runtime.GOOS)
}
