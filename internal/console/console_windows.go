package console

import (
	"sync/atomic"
	"unsafe"

	"github.com/soar/padview/internal/logger"
	"golang.org/x/sys/windows"
)

// SDL3 installs its own console control handler during initialization and
// os.Interrupt delivery stops reaching us on a thread locked by SDL. The
// handler here closes a channel instead and can be re-armed after SDL is up.

const (
	isWindows = true

	ctrlCEvent     = 0
	ctrlBreakEvent = 1
)

var (
	kernel32                  = windows.NewLazySystemDLL("kernel32.dll")
	procSetConsoleCtrlHandler = kernel32.NewProc("SetConsoleCtrlHandler")
	procGetConsoleWindow      = kernel32.NewProc("GetConsoleWindow")
	procFreeConsole           = kernel32.NewProc("FreeConsole")
)

// Detached reports whether the program was double-clicked in Explorer. The
// console window Windows opened for it is released so only the tray remains.
func Detached() bool {
	if !launchedFromExplorer() {
		return false
	}
	if hwnd, _, _ := procGetConsoleWindow.Call(); hwnd != 0 {
		procFreeConsole.Call()
	}
	return true
}

func launchedFromExplorer() bool {
	parent := parentProcessID(windows.GetCurrentProcessId())
	if parent == 0 {
		return false
	}
	return isExplorerExe(processImageName(parent))
}

func parentProcessID(pid uint32) uint32 {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return 0
	}
	defer windows.CloseHandle(snap)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	for err = windows.Process32First(snap, &entry); err == nil; err = windows.Process32Next(snap, &entry) {
		if entry.ProcessID == pid {
			return entry.ParentProcessID
		}
	}
	return 0
}

func processImageName(pid uint32) string {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return ""
	}
	defer windows.CloseHandle(h)

	var buf [windows.MAX_PATH]uint16
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(h, 0, &buf[0], &size); err != nil {
		return ""
	}
	return windows.UTF16ToString(buf[:size])
}

type handler struct {
	closed   atomic.Bool
	shutdown chan struct{}
	callback uintptr
}

// the callback must outlive every registration
var current *handler

// SetupConsoleHandler closes shutdown on Ctrl+C or Ctrl+Break. The returned
// function registers the handler again; call it after SDL is initialized.
func SetupConsoleHandler(shutdown chan struct{}, log *logger.Logger) func() {
	h := &handler{shutdown: shutdown}
	h.callback = windows.NewCallback(func(ctrlType uint32) uintptr {
		if ctrlType != ctrlCEvent && ctrlType != ctrlBreakEvent {
			return 0
		}
		if h.closed.CompareAndSwap(false, true) {
			close(h.shutdown)
		}
		return 1
	})
	current = h

	register := func() {
		if ret, _, err := procSetConsoleCtrlHandler.Call(h.callback, 1); ret == 0 {
			log.Warn().Err(err).Msg("Failed to set console control handler")
		}
	}
	register()
	return register
}
