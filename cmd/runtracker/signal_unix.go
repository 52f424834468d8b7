// Unix signal handling: SIGINT and SIGTERM stop the daemon, SIGUSR1 and
// SIGUSR2 carry the reset and clear controls sent by `runtracker reset` and
// `runtracker clear`.

//go:build !windows

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// signalChannel returns a buffered channel that receives SIGINT and SIGTERM.
func signalChannel() <-chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	return ch
}

// controlChannel translates SIGUSR1 and SIGUSR2 into controls.
func controlChannel() <-chan control {
	sigs := make(chan os.Signal, 4)
	signal.Notify(sigs, syscall.SIGUSR1, syscall.SIGUSR2)
	out := make(chan control, 4)
	go func() {
		for s := range sigs {
			switch s {
			case syscall.SIGUSR1:
				out <- controlReset
			case syscall.SIGUSR2:
				out <- controlClear
			}
		}
	}()
	return out
}

// sendControl delivers c to the daemon running as pid.
func sendControl(pid int, c control) error {
	sig := syscall.SIGUSR1
	if c == controlClear {
		sig = syscall.SIGUSR2
	}
	if err := syscall.Kill(pid, sig); err != nil {
		return fmt.Errorf("signal pid %d: %w", pid, err)
	}
	return nil
}
