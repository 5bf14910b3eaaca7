package protocol

import (
	"errors"
	"io"
	"net"
	"os"
	"syscall"
)

// IsClosedConnErr reports whether err is one of the errors expected when a
// peer or the local side tears the connection down: end of stream, use of a
// closed connection, broken pipe, connection reset, or an expired deadline.
// These mark normal termination and are not escalated.
func IsClosedConnErr(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, os.ErrDeadlineExceeded)
}
