package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pyrv32/pyrv32/internal/machine"
)

// openStream resolves a --stdout/--stderr flag value into a writable
// stream. "tty" means use the given host default (os.Stdout/os.Stderr);
// anything else is opened or created as a file. The returned close func is
// always safe to defer, even for the tty case.
func openStream(path string, ttyDefault *os.File, forWrite bool) (*os.File, func(), error) {
	if path == "" || path == "tty" {
		return ttyDefault, func() {}, nil
	}
	var f *os.File
	var err error
	if forWrite {
		f, err = os.Create(path)
	} else {
		f, err = os.Open(path)
	}
	if err != nil {
		return nil, func() {}, fmt.Errorf("open %s: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}

// pumpStdin feeds bytes from the resolved --stdin source into the
// machine's console RX FIFO. "tty" streams indefinitely from os.Stdin;
// a file is drained once to EOF. The pump runs in its own goroutine and
// the returned stop func is a no-op (the goroutine exits on EOF or when
// the process exits); it exists to give callers a defer-shaped handle.
func pumpStdin(path string, m *machine.Machine) func() {
	var src io.Reader
	var closer func()
	if path == "" || path == "tty" {
		src = os.Stdin
		closer = func() {}
	} else {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pyrv32: stdin: %v\n", err)
			return func() {}
		}
		src = f
		closer = func() { f.Close() }
	}

	rx := m.RXFifo()
	go func() {
		defer closer()
		buf := make([]byte, 256)
		for {
			n, err := src.Read(buf)
			for i := 0; i < n; i++ {
				rx.Push(buf[i])
			}
			if err != nil {
				return
			}
		}
	}()
	return func() {}
}
