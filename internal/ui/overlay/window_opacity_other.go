//go:build !windows

package overlay

// applyNativeOpacity is a no-op where fyne's translucent background is enough.
func (overlay *Window) applyNativeOpacity(uint8) {}
