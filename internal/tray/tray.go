package tray

import (
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"

	"fyne.io/systray"
	"github.com/soar/padview/internal/gamepad"
	"github.com/soar/padview/internal/logger"
)

const title = "padview"

// ShutdownFunc is called when "Exit" is clicked
type ShutdownFunc func()

// Tray manages the system tray icon and menu. It is also a render surface
// that only shows the connection status, as the tooltip.
type Tray struct {
	url          string
	log          *logger.Logger
	shutdownFunc ShutdownFunc
	once         sync.Once
	shuttingDown atomic.Bool
	ready        atomic.Bool
	tooltip      atomic.Value // string
	menuOpen     *systray.MenuItem
	menuExit     *systray.MenuItem
}

// New creates a new Tray instance
func New(url string, log *logger.Logger, shutdownFn ShutdownFunc) *Tray {
	t := &Tray{
		url:          url,
		log:          log,
		shutdownFunc: shutdownFn,
	}
	t.tooltip.Store(title + " - " + url)
	return t
}

// Run initializes and runs the system tray (blocks until Quit())
func (t *Tray) Run(iconData []byte) {
	systray.Run(func() {
		t.onReady(iconData)
	}, func() {
		t.onExit()
	})
}

func (t *Tray) onReady(iconData []byte) {
	if iconData != nil {
		systray.SetIcon(iconData)
	}
	systray.SetTitle(title)
	systray.SetTooltip(t.tooltip.Load().(string))

	t.menuOpen = systray.AddMenuItem("Open Browser", "Open web interface")
	t.menuExit = systray.AddMenuItem("Exit", "Quit application")
	t.ready.Store(true)

	go t.handleMenuClicks()

	t.log.Info().Msg("System tray initialized")
}

func (t *Tray) handleMenuClicks() {
	for {
		select {
		case <-t.menuOpen.ClickedCh:
			if !t.shuttingDown.Load() {
				OpenBrowser(t.url, t.log)
			}
		case <-t.menuExit.ClickedCh:
			if t.shuttingDown.CompareAndSwap(false, true) {
				t.once.Do(t.shutdownFunc)
				systray.Quit()
				return
			}
		}
	}
}

func (t *Tray) onExit() {
	t.shuttingDown.Store(true)
	t.log.Info().Msg("System tray exiting")
}

// Quit removes the tray icon; safe to call when Run never started.
func (t *Tray) Quit() {
	if t.ready.Load() && t.shuttingDown.CompareAndSwap(false, true) {
		systray.Quit()
	}
}

func (t *Tray) ClearAllHighlights()                {}
func (t *Tray) SetHighlight(gamepad.Control, bool) {}

func (t *Tray) SetStatus(connected bool, label string) {
	tip := title + " - " + label
	if t.tooltip.Swap(tip) == tip {
		return
	}
	if t.ready.Load() && !t.shuttingDown.Load() {
		systray.SetTooltip(tip)
	}
}

// OpenBrowser opens url in the default web browser.
func OpenBrowser(url string, log *logger.Logger) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	if err := cmd.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to open browser")
	}
}
