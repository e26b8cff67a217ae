package sdlreader

import "unsafe"

// joystick is the opaque SDL_Joystick.
type joystick struct{}

type joystickID uint32

const (
	initJoystick = 0x00000200

	eventJoystickAdded   = 0x605
	eventJoystickRemoved = 0x606
)

// event is SDL_Event, a 128 byte union led by its type. Device events carry
// the joystick id after the common header (type, reserved, timestamp).
type event [128]byte

func (e *event) kind() uint32 { return *(*uint32)(unsafe.Pointer(e)) }

func (e *event) which() joystickID { return *(*joystickID)(unsafe.Pointer(&e[16])) }

// library holds the SDL3 joystick calls the reader needs. It is resolved at
// run time so a missing SDL3 only disables controller polling.
type library struct {
	start    func(flags uint32) bool
	quit     func()
	getError func() string
	free     func(mem unsafe.Pointer)
	delayNS  func(ns uint64)
	poll     func(ev *event) bool

	getJoysticks func(count *int32) *joystickID
	open         func(id joystickID) *joystick
	close        func(js *joystick)
	connected    func(js *joystick) bool
	id           func(js *joystick) joystickID
	name         func(js *joystick) string
	vendor       func(js *joystick) uint16
	product      func(js *joystick) uint16
	numAxes      func(js *joystick) int32
	numButtons   func(js *joystick) int32
	numHats      func(js *joystick) int32
	axis         func(js *joystick, i int32) int16
	button       func(js *joystick, i int32) bool
	hat          func(js *joystick, i int32) uint8
}

// joysticks returns the ids of the attached joysticks.
func (l *library) joysticks() []joystickID {
	var count int32
	p := l.getJoysticks(&count)
	if p == nil {
		return nil
	}
	defer l.free(unsafe.Pointer(p))
	return append([]joystickID(nil), unsafe.Slice(p, count)...)
}
