package sdlreader

import "syscall"

const defaultLibrary = "SDL3.dll"

func openLibrary(name string) (uintptr, error) {
	h, err := syscall.LoadLibrary(name)
	return uintptr(h), err
}
