// Package sdlreader polls joysticks through SDL3 and exposes them as
// gamepad slots. SDL3 is loaded when Run starts; without it the reader
// reports the platform as unsupported and the rest of the program runs on.
package sdlreader

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/soar/padview/internal/gamepad"
	"github.com/soar/padview/internal/logger"
)

// ErrUnsupported is returned by Run when SDL3 or its joystick subsystem is unavailable.
var ErrUnsupported = errors.New("sdl: controller polling not supported")

type joystickInfo struct {
	joystick *joystick
	mapping  *gamepad.DeviceMapping
	id       string
	slot     int
}

// Reader implements gamepad.Platform on top of SDL3.
type Reader struct {
	log      *logger.Logger
	interval time.Duration
	library  string
	onInit   func()

	sdl       *library
	joysticks map[joystickID]*joystickInfo
	slots     *gamepad.Slots
}

// New creates a reader with the given number of slots polled every interval.
func New(log *logger.Logger, slots int, interval time.Duration) *Reader {
	return &Reader{
		log:       log,
		interval:  interval,
		joysticks: make(map[joystickID]*joystickInfo),
		slots:     gamepad.NewSlots(slots),
	}
}

// SetLibrary overrides the SDL3 library name or path.
func (r *Reader) SetLibrary(name string) { r.library = name }

// OnInit registers fn to run on the SDL thread right after SDL is initialized.
func (r *Reader) OnInit(fn func()) { r.onInit = fn }

func (r *Reader) Events() <-chan gamepad.Event { return r.slots.Events() }

func (r *Reader) Snapshots() []*gamepad.Snapshot { return r.slots.Snapshots() }

// Run loads SDL3 and runs the event+polling loop on a locked OS thread
// until ctx is done.
func (r *Reader) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	sdl, err := load(r.library)
	if err != nil {
		r.slots.Unsupported(ctx)
		return fmt.Errorf("%w: %w", ErrUnsupported, err)
	}
	if !sdl.start(initJoystick) {
		r.slots.Unsupported(ctx)
		return fmt.Errorf("%w: %s", ErrUnsupported, sdl.getError())
	}
	defer sdl.quit()
	r.sdl = sdl

	if r.onInit != nil {
		r.onInit()
	}
	r.log.Info().Int("slots", r.slots.Len()).Msg("SDL3 joystick subsystem initialized")

	for _, id := range sdl.joysticks() {
		r.openJoystick(ctx, id)
	}

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return nil
		default:
		}

		r.processEvents(ctx)
		r.pollState()
		sdl.delayNS(uint64(r.interval.Nanoseconds()))
	}
}

func (r *Reader) processEvents(ctx context.Context) {
	var ev event
	for r.sdl.poll(&ev) {
		switch ev.kind() {
		case eventJoystickAdded:
			r.openJoystick(ctx, ev.which())
		case eventJoystickRemoved:
			r.removeJoystick(ctx, ev.which())
		}
	}
}

func (r *Reader) openJoystick(ctx context.Context, instanceID joystickID) {
	if _, exists := r.joysticks[instanceID]; exists {
		return
	}

	slot := r.slots.Free()
	if slot < 0 {
		r.log.Warn().Uint32("instance", uint32(instanceID)).Msg("No free controller slot, ignoring joystick")
		return
	}

	js := r.sdl.open(instanceID)
	if js == nil {
		r.log.Warn().Uint32("instance", uint32(instanceID)).Str("err", r.sdl.getError()).Msg("Failed to open joystick")
		return
	}

	vendorID := r.sdl.vendor(js)
	productID := r.sdl.product(js)
	name := r.sdl.name(js)
	mapping := gamepad.GetMapping(vendorID, productID)

	info := &joystickInfo{
		joystick: js,
		mapping:  mapping,
		id:       fmt.Sprintf("%s (Vendor: %04x Product: %04x)", name, vendorID, productID),
		slot:     slot,
	}
	r.joysticks[r.sdl.id(js)] = info

	r.log.Info().
		Str("name", name).
		Str("vid", fmt.Sprintf("%04X", vendorID)).
		Str("pid", fmt.Sprintf("%04X", productID)).
		Str("mapping", mapping.Name).
		Int32("axes", r.sdl.numAxes(js)).
		Int32("buttons", r.sdl.numButtons(js)).
		Int32("hats", r.sdl.numHats(js)).
		Int("slot", slot).
		Msg("Joystick connected")

	r.slots.Connect(ctx, slot, r.read(info))
}

func (r *Reader) removeJoystick(ctx context.Context, instanceID joystickID) {
	info, exists := r.joysticks[instanceID]
	if !exists {
		return
	}

	r.log.Info().Str("id", info.id).Int("slot", info.slot).Msg("Joystick disconnected")
	r.sdl.close(info.joystick)
	delete(r.joysticks, instanceID)
	r.slots.Disconnect(ctx, info.slot)
}

func (r *Reader) closeAll() {
	for id, info := range r.joysticks {
		r.sdl.close(info.joystick)
		delete(r.joysticks, id)
	}
	r.slots.Clear()
}

func (r *Reader) pollState() {
	for _, info := range r.joysticks {
		if !r.sdl.connected(info.joystick) {
			continue
		}
		r.slots.Update(info.slot, r.read(info))
	}
}

// read samples one joystick into a fresh snapshot.
func (r *Reader) read(info *joystickInfo) *gamepad.Snapshot {
	js := info.joystick

	in := gamepad.RawInput{
		Axes:    make([]int16, r.sdl.numAxes(js)),
		Buttons: make([]bool, r.sdl.numButtons(js)),
	}
	for i := range in.Axes {
		in.Axes[i] = r.sdl.axis(js, int32(i))
	}
	for i := range in.Buttons {
		in.Buttons[i] = r.sdl.button(js, int32(i))
	}
	if r.sdl.numHats(js) > 0 {
		in.HasHat = true
		in.Hat = r.sdl.hat(js, 0)
	}

	s := &gamepad.Snapshot{
		Index:     info.slot,
		ID:        info.id,
		Timestamp: time.Now(),
	}
	info.mapping.Fill(s, in)
	return s
}
