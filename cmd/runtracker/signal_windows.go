// Windows has no user signals, so a running daemon cannot be sent controls.
// Only os.Interrupt (Ctrl+C and console close) is handled.

//go:build windows

package main

import (
	"errors"
	"os"
	"os/signal"
)

var errControlUnsupported = errors.New("sending controls to a running daemon is not supported on windows")

// signalChannel returns a buffered channel that receives os.Interrupt.
func signalChannel() <-chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	return ch
}

// controlChannel returns nil; receiving from it blocks forever.
func controlChannel() <-chan control {
	return nil
}

func sendControl(int, control) error {
	return errControlUnsupported
}
