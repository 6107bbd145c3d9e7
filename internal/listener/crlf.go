package listener

import (
	"bytes"
	"io"
)

// terminalConn translates line endings between a remote terminal and the
// game, which only ever sees \n.
type terminalConn struct {
	rw io.ReadWriter

	// pendingCR is set when the last byte read was \r, so a \n or NUL that
	// starts the next read completes the same line ending.
	pendingCR bool
}

func newTerminalConn(rw io.ReadWriter) io.ReadWriter {
	return &terminalConn{rw: rw}
}

// Read accepts \r\n (telnet), bare \r (ssh with a pty), \r NUL and \n.
func (c *terminalConn) Read(p []byte) (int, error) {
	n, err := c.rw.Read(p)

	out := p[:0]
	for _, b := range p[:n] {
		if b == '\r' {
			out = append(out, '\n')
			c.pendingCR = true
			continue
		}
		if c.pendingCR && (b == '\n' || b == 0) {
			c.pendingCR = false
			continue
		}
		c.pendingCR = false
		out = append(out, b)
	}

	return len(out), err
}

// Write sends every \n as \r\n and reports the caller's length.
func (c *terminalConn) Write(p []byte) (int, error) {
	_, err := c.rw.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n")))
	if err != nil {
		return 0, err
	}
	return len(p), nil
}
