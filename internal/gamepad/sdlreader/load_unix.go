//go:build (darwin || freebsd || linux) && !android

package sdlreader

import (
	"runtime"

	"github.com/ebitengine/purego"
)

var defaultLibrary = func() string {
	if runtime.GOOS == "darwin" {
		return "libSDL3.dylib"
	}
	return "libSDL3.so.0"
}()

func openLibrary(name string) (uintptr, error) {
	return purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}
