//go:build windows

package overlay

import (
	"syscall"

	"fyne.io/fyne/v2/driver"
)

const (
	gwlExStyle   = ^uintptr(19) // GWL_EXSTYLE (-20)
	wsExLayered  = 0x00080000
	wsExTopmost  = 0x00000008
	lwaAlpha     = 0x2
	hwndTopmost  = ^uintptr(0) // HWND_TOPMOST (-1)
	swpNoMove    = 0x0002
	swpNoSize    = 0x0001
	swpNoActive  = 0x0010
	topmostFlags = swpNoMove | swpNoSize | swpNoActive
)

var (
	user32                         = syscall.NewLazyDLL("user32.dll")
	procGetWindowLongPtrW          = user32.NewProc("GetWindowLongPtrW")
	procSetWindowLongPtrW          = user32.NewProc("SetWindowLongPtrW")
	procSetLayeredWindowAttributes = user32.NewProc("SetLayeredWindowAttributes")
	procSetWindowPos               = user32.NewProc("SetWindowPos")
)

// applyNativeOpacity makes the whole overlay translucent and keeps it above
// the presentation window.
func (overlay *Window) applyNativeOpacity(alpha uint8) {
	nativeWindow, ok := overlay.window.(driver.NativeWindow)
	if !ok {
		return
	}

	nativeWindow.RunNative(func(context any) {
		hwnd := windowHandle(context)
		if hwnd == 0 {
			return
		}
		style, _, _ := procGetWindowLongPtrW.Call(hwnd, gwlExStyle)
		if style&wsExLayered == 0 {
			procSetWindowLongPtrW.Call(hwnd, gwlExStyle, style|wsExLayered)
		}
		procSetLayeredWindowAttributes.Call(hwnd, 0, uintptr(alpha), lwaAlpha)
		if style&wsExTopmost == 0 {
			procSetWindowPos.Call(hwnd, hwndTopmost, 0, 0, 0, 0, topmostFlags)
		}
	})
}

func windowHandle(context any) uintptr {
	switch value := context.(type) {
	case driver.WindowsWindowContext:
		return value.HWND
	case *driver.WindowsWindowContext:
		return value.HWND
	default:
		return 0
	}
}
