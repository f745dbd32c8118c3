//go:build !windows

package main

import "syscall"

const defaultUmask = 0077

func setUmask() {
	syscall.Umask(defaultUmask)
}
