//go:build (darwin || freebsd || linux || windows) && !android

package sdlreader

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// load opens the SDL3 shared library and binds the joystick calls. An empty
// name means the platform's default SDL3 library name.
func load(name string) (lib *library, err error) {
	if name == "" {
		name = defaultLibrary
	}
	handle, err := openLibrary(name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	// RegisterLibFunc panics on a missing symbol, e.g. an SDL2 library.
	defer func() {
		if r := recover(); r != nil {
			lib, err = nil, fmt.Errorf("load %s: %v", name, r)
		}
	}()

	lib = &library{}
	for _, f := range []struct {
		fptr any
		name string
	}{
		{&lib.start, "SDL_Init"},
		{&lib.quit, "SDL_Quit"},
		{&lib.getError, "SDL_GetError"},
		{&lib.free, "SDL_free"},
		{&lib.delayNS, "SDL_DelayNS"},
		{&lib.poll, "SDL_PollEvent"},
		{&lib.getJoysticks, "SDL_GetJoysticks"},
		{&lib.open, "SDL_OpenJoystick"},
		{&lib.close, "SDL_CloseJoystick"},
		{&lib.connected, "SDL_JoystickConnected"},
		{&lib.id, "SDL_GetJoystickID"},
		{&lib.name, "SDL_GetJoystickName"},
		{&lib.vendor, "SDL_GetJoystickVendor"},
		{&lib.product, "SDL_GetJoystickProduct"},
		{&lib.numAxes, "SDL_GetNumJoystickAxes"},
		{&lib.numButtons, "SDL_GetNumJoystickButtons"},
		{&lib.numHats, "SDL_GetNumJoystickHats"},
		{&lib.axis, "SDL_GetJoystickAxis"},
		{&lib.button, "SDL_GetJoystickButton"},
		{&lib.hat, "SDL_GetJoystickHat"},
	} {
		purego.RegisterLibFunc(f.fptr, handle, f.name)
	}
	return lib, nil
}
