// Package wire implements the Wayland wire codec (C1): 32-bit-word message
// framing, typed argument serialization, and ancillary file-descriptor
// transport over a Unix domain socket.
package wire

import (
	"encoding/binary"
	"math"
	"net"

	"golang.org/x/sys/unix"

	"github.com/corvidwl/wlgo/wlerr"
)

const (
	headerSize = 8
	// maxFDsPerRead bounds the ancillary-data buffer on every recvmsg
	// call; FDs the kernel cannot fit in that buffer are silently closed
	// by the kernel and never arrive on a later read.
	maxFDsPerRead = 32
	// maxMessageSize is the sanity cap on a single message's declared
	// size; anything larger is treated as a malformed header.
	maxMessageSize = 1 << 20
)

// Fixed is Wayland's 24.8 signed fixed-point wire type.
type Fixed int32

func NewFixed(v float64) Fixed {
	return Fixed(int32(v * 256))
}

func (f Fixed) Float64() float64 {
	return float64(f) / 256
}

// Header is the two leading u32 words of every message.
type Header struct {
	ObjectID uint32
	Opcode   uint16
	Size     uint16
}

// Message is one fully framed inbound or outbound message: the header
// fields plus payload (everything after the 8-byte header) and any FDs
// that accompanied it out-of-band.
type Message struct {
	ObjectID uint32
	Opcode   uint16
	Payload  []byte
	FDs      []int
}

// DecodeHeader reads the two-word header from the front of buf. buf must
// be at least headerSize bytes.
func DecodeHeader(buf []byte) Header {
	objectID := binary.LittleEndian.Uint32(buf[0:4])
	word2 := binary.LittleEndian.Uint32(buf[4:8])
	return Header{
		ObjectID: objectID,
		Opcode:   uint16(word2 & 0xffff),
		Size:     uint16(word2 >> 16),
	}
}

func encodeHeader(objectID uint32, opcode uint16, size uint16) []byte {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(buf[0:4], objectID)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(size)<<16|uint32(opcode))
	return buf
}

// Builder accumulates a request payload and its accompanying FDs.
type Builder struct {
	payload []byte
	fds     []int
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) PutUint32(v uint32) *Builder {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	b.payload = append(b.payload, buf[:]...)
	return b
}

func (b *Builder) PutInt32(v int32) *Builder {
	return b.PutUint32(uint32(v))
}

func (b *Builder) PutFixed(v Fixed) *Builder {
	return b.PutUint32(uint32(v))
}

// PutString writes a u32 length (including the trailing NUL), the bytes
// of s, a NUL terminator, and pad bytes out to a 4-byte boundary.
func (b *Builder) PutString(s string) *Builder {
	n := uint32(len(s)) + 1
	b.PutUint32(n)
	b.payload = append(b.payload, []byte(s)...)
	b.payload = append(b.payload, 0)
	b.pad(int(n))
	return b
}

// PutArray writes a u32 length and the raw bytes, padded to a 4-byte
// boundary. Unlike PutString, no NUL terminator is appended.
func (b *Builder) PutArray(data []byte) *Builder {
	b.PutUint32(uint32(len(data)))
	b.payload = append(b.payload, data...)
	b.pad(len(data))
	return b
}

// PutFD queues fd as ancillary data; it contributes no bytes to the
// payload stream.
func (b *Builder) PutFD(fd int) *Builder {
	b.fds = append(b.fds, fd)
	return b
}

func (b *Builder) pad(written int) {
	if rem := written % 4; rem != 0 {
		b.payload = append(b.payload, make([]byte, 4-rem)...)
	}
}

// Build produces the full header+payload message ready to hand to a
// Writer, for the given object ID and opcode.
func (b *Builder) Build(objectID uint32, opcode uint16) Message {
	return Message{
		ObjectID: objectID,
		Opcode:   opcode,
		Payload:  b.payload,
		FDs:      b.fds,
	}
}

// Reader consumes wire arguments from a payload slice in order, the
// inverse of Builder.
type Reader struct {
	buf []byte
	off int
	fds []int
}

func NewReader(payload []byte, fds []int) *Reader {
	return &Reader{buf: payload, fds: fds}
}

func (r *Reader) Uint32() (uint32, error) {
	if r.off+4 > len(r.buf) {
		return 0, wlerr.New(wlerr.KindCodecError, "truncated u32 argument")
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off : r.off+4])
	r.off += 4
	return v, nil
}

func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

func (r *Reader) Fixed() (Fixed, error) {
	v, err := r.Uint32()
	return Fixed(v), err
}

func (r *Reader) String() (string, error) {
	n, err := r.Uint32()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	end := r.off + int(n)
	if end > len(r.buf) {
		return "", wlerr.New(wlerr.KindCodecError, "truncated string argument")
	}
	s := string(r.buf[r.off : end-1]) // drop trailing NUL
	r.off = end
	r.skipPad(int(n))
	return s, nil
}

func (r *Reader) Array() ([]byte, error) {
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	end := r.off + int(n)
	if end > len(r.buf) {
		return nil, wlerr.New(wlerr.KindCodecError, "truncated array argument")
	}
	data := r.buf[r.off:end]
	r.off = end
	r.skipPad(int(n))
	return data, nil
}

// FD pops the next FD off the shared inbound FIFO. The caller owns the
// returned descriptor and must close it (or forward ownership) itself.
func (r *Reader) FD() (int, error) {
	if len(r.fds) == 0 {
		return -1, wlerr.New(wlerr.KindCodecError, "no FD available for fd argument")
	}
	fd := r.fds[0]
	r.fds = r.fds[1:]
	return fd, nil
}

func (r *Reader) skipPad(written int) {
	if rem := written % 4; rem != 0 {
		r.off += 4 - rem
	}
}

// Framer accumulates inbound bytes and FDs and splits them into whole
// messages, per §4.1's framing algorithm.
type Framer struct {
	buf []byte
	fds []int
}

// Feed appends newly read bytes and FDs to the framer's internal state.
func (f *Framer) Feed(data []byte, fds []int) {
	f.buf = append(f.buf, data...)
	f.fds = append(f.fds, fds...)
}

// Next extracts one complete message if the buffer holds one, advancing
// past it. ok is false if more data is needed.
func (f *Framer) Next() (msg Message, ok bool, err error) {
	if len(f.buf) < headerSize {
		return Message{}, false, nil
	}
	h := DecodeHeader(f.buf)
	if h.Size < headerSize || int(h.Size) > maxMessageSize {
		return Message{}, false, wlerr.New(wlerr.KindCodecError, "malformed message header")
	}
	if len(f.buf) < int(h.Size) {
		return Message{}, false, nil
	}
	payload := f.buf[headerSize:h.Size]
	payloadCopy := make([]byte, len(payload))
	copy(payloadCopy, payload)
	f.buf = f.buf[h.Size:]

	msg = Message{ObjectID: h.ObjectID, Opcode: h.Opcode, Payload: payloadCopy}
	// FD attribution: a message only consumes FDs it itself declares
	// via fd-typed arguments, which this framer cannot know. Event
	// handlers pull FDs off the shared FIFO via Reader.FD, so hand the
	// whole outstanding queue along and let the handler drain what it
	// needs; anything unconsumed remains queued for the next message.
	msg.FDs = f.fds
	f.fds = nil
	return msg, true, nil
}

// Transport sends and receives framed messages with ancillary FDs over a
// Unix domain socket connection.
type Transport struct {
	conn *net.UnixConn
}

func NewTransport(conn *net.UnixConn) *Transport {
	return &Transport{conn: conn}
}

// ReadChunk performs one recvmsg call, returning raw bytes and any FDs
// received alongside them. A zero-length read with no FDs signals peer
// close.
func (t *Transport) ReadChunk(buf []byte) (n int, fds []int, err error) {
	oob := make([]byte, unix.CmsgSpace(maxFDsPerRead*4))
	n, oobn, _, _, rerr := t.conn.ReadMsgUnix(buf, oob)
	if rerr != nil {
		return 0, nil, wlerr.Wrap(wlerr.KindDisconnected, "read failed", rerr)
	}
	if n == 0 && oobn == 0 {
		return 0, nil, wlerr.Disconnected
	}
	if oobn > 0 {
		cmsgs, perr := unix.ParseSocketControlMessage(oob[:oobn])
		if perr == nil {
			for _, cmsg := range cmsgs {
				received, rerr := unix.ParseUnixRights(&cmsg)
				if rerr == nil {
					fds = append(fds, received...)
				}
			}
		}
	}
	return n, fds, nil
}

// Write sends one framed message in a single write, attaching FDs as
// ancillary data if any accompany it. Short writes are resumed from the
// unsent offset.
func (t *Transport) Write(msg Message) error {
	if len(msg.Payload)+headerSize > math.MaxUint16 {
		return wlerr.New(wlerr.KindCodecError, "message too large to encode size field")
	}
	header := encodeHeader(msg.ObjectID, msg.Opcode, uint16(headerSize+len(msg.Payload)))
	full := append(header, msg.Payload...)

	var oob []byte
	if len(msg.FDs) > 0 {
		oob = unix.UnixRights(msg.FDs...)
	}

	off := 0
	first := true
	for off < len(full) {
		var n, oobn int
		var err error
		if first {
			n, oobn, err = t.conn.WriteMsgUnix(full[off:], oob, nil)
			first = false
		} else {
			n, oobn, err = t.conn.WriteMsgUnix(full[off:], nil, nil)
		}
		_ = oobn
		if err != nil {
			return wlerr.Wrap(wlerr.KindDisconnected, "write failed", err)
		}
		if n == 0 {
			return wlerr.Disconnected
		}
		off += n
	}
	return nil
}
