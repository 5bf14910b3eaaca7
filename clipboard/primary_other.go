//go:build !(linux || freebsd || netbsd || openbsd || dragonfly || solaris)

package clipboard

// CopyPrimary is a no-op where there is no PRIMARY selection.
func CopyPrimary(string) error { return nil }
