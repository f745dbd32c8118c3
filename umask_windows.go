//go:build windows

package main

// Windows has no process umask; state files are written with explicit
// permissions instead.
func setUmask() {}
