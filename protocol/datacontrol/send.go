package datacontrol

import (
	"io"

	"golang.org/x/sys/unix"

	"github.com/corvidwl/wlgo/wlclient"
)

func closeFD(fd int) {
	unix.Close(fd)
}

// streamToFD implements the resolved Open Question: the provided fd is
// set non-blocking and registered with the event loop for
// write-readiness; on each writable callback it pulls more bytes from
// reader and writes what it can, closing fd on EOF or any write error.
func streamToFD(conn *wlclient.Connection, loop writer, fd int, reader io.Reader) {
	if err := unix.SetNonblock(fd, true); err != nil {
		conn.Logger().Error().Err(err).Msg("failed to set send fd non-blocking")
		closeFD(fd)
		return
	}

	var pending []byte
	eof := false

	finish := func() {
		loop.UnregisterWriter(fd)
		closeFD(fd)
	}

	var onWritable func()
	onWritable = func() {
		if len(pending) == 0 && !eof {
			buf := make([]byte, 64*1024)
			n, err := reader.Read(buf)
			if n > 0 {
				pending = buf[:n]
			}
			if err == io.EOF {
				eof = true
			} else if err != nil {
				conn.Logger().Error().Err(err).Msg("clipboard source payload read failed")
				finish()
				return
			}
		}
		for len(pending) > 0 {
			n, err := unix.Write(fd, pending)
			if err != nil {
				if err == unix.EAGAIN {
					return
				}
				conn.Logger().Error().Err(err).Msg("clipboard source write failed")
				finish()
				return
			}
			pending = pending[n:]
		}
		if eof && len(pending) == 0 {
			finish()
		}
	}

	if err := loop.RegisterWriter(fd, onWritable); err != nil {
		conn.Logger().Error().Err(err).Msg("failed to register send fd for write readiness")
		closeFD(fd)
	}
}
