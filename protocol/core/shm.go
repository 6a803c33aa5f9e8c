package core

import (
	"github.com/corvidwl/wlgo/wire"
	"github.com/corvidwl/wlgo/wlclient"
	"github.com/corvidwl/wlgo/wlerr"
)

const shmMaxVersion uint32 = 2

const shmOpcodeCreatePool uint16 = 0

const shmEventFormat uint16 = 0

// Well-known pixel formats; every compositor supports at least these
// two, per the wl_shm protocol.
const (
	ShmFormatArgb8888 uint32 = 0
	ShmFormatXrgb8888 uint32 = 1
)

// Shm tracks the set of pixel formats the server advertises and creates
// shared-memory pools.
type Shm struct {
	wlclient.BaseProxy

	formats map[uint32]bool
}

// BindShm binds the first-advertised wl_shm global. Must be called after
// initial sync per §4.5.
func BindShm(conn *wlclient.Connection) (*Shm, error) {
	p, err := conn.Bind("wl_shm", 0, shmMaxVersion, func(id, version uint32) wlclient.Proxy {
		s := &Shm{formats: make(map[uint32]bool)}
		s.InitBaseProxy(conn, id, "wl_shm", version)
		return s
	})
	if err != nil {
		return nil, err
	}
	return p.(*Shm), nil
}

// SupportsFormat reports whether the server advertised the given pixel
// format.
func (s *Shm) SupportsFormat(format uint32) bool {
	return s.formats[format]
}

// CreatePool creates a shared-memory pool backed by fd, of the given
// byte size. fd ownership passes to the compositor over the wire; the
// caller retains its own copy and is responsible for closing it.
func (s *Shm) CreatePool(fd int, size int32) (*ShmPool, error) {
	id := s.Connection().NewObjectID()
	b := wire.NewBuilder().PutUint32(id).PutFD(fd).PutInt32(size)
	if err := s.SendRequest(shmOpcodeCreatePool, b); err != nil {
		return nil, err
	}
	pool := &ShmPool{size: size}
	pool.InitBaseProxy(s.Connection(), id, "wl_shm_pool", s.Version())
	s.Connection().RegisterProxy(pool)
	return pool, nil
}

func (s *Shm) Dispatch(opcode uint16, r *wire.Reader) error {
	if opcode != shmEventFormat {
		return nil
	}
	v, err := r.Uint32()
	if err != nil {
		return err
	}
	s.formats[v] = true
	return nil
}

func (s *Shm) OnDestroyed() {}

const (
	shmPoolOpcodeCreateBuffer uint16 = 0
	shmPoolOpcodeDestroy      uint16 = 1
	shmPoolOpcodeResize       uint16 = 2
)

// ShmPool is a region of shared memory buffers are carved out of.
type ShmPool struct {
	wlclient.BaseProxy
	size int32
}

// CreateBuffer carves a buffer out of the pool. It validates that
// offset + height*stride fits within the pool and that format was
// advertised by the owning Shm, surfacing invalid-argument otherwise
// (§4.5).
func (p *ShmPool) CreateBuffer(shm *Shm, offset, width, height, stride int32, format uint32) (*Buffer, error) {
	if offset < 0 || height < 0 || stride < 0 {
		return nil, wlerr.New(wlerr.KindInvalidArgument, "negative buffer dimension")
	}
	if int64(offset)+int64(height)*int64(stride) > int64(p.size) {
		return nil, wlerr.New(wlerr.KindInvalidArgument, "buffer extends past pool size")
	}
	if !shm.SupportsFormat(format) {
		return nil, wlerr.New(wlerr.KindInvalidArgument, "unsupported shm format")
	}

	id := p.Connection().NewObjectID()
	b := wire.NewBuilder().PutUint32(id).PutInt32(offset).PutInt32(width).
		PutInt32(height).PutInt32(stride).PutUint32(format)
	if err := p.SendRequest(shmPoolOpcodeCreateBuffer, b); err != nil {
		return nil, err
	}
	buf := &Buffer{}
	buf.InitBaseProxy(p.Connection(), id, "wl_buffer", p.Version())
	p.Connection().RegisterProxy(buf)
	return buf, nil
}

// Resize grows the pool to a new byte size; the backing fd must already
// have been truncated to at least that size by the caller.
func (p *ShmPool) Resize(size int32) error {
	p.size = size
	return p.SendRequest(shmPoolOpcodeResize, wire.NewBuilder().PutInt32(size))
}

func (p *ShmPool) Destroy() error {
	err := p.SendRequest(shmPoolOpcodeDestroy, wire.NewBuilder())
	p.Connection().Unregister(p.ID())
	return err
}

func (p *ShmPool) Dispatch(uint16, *wire.Reader) error { return nil }
func (p *ShmPool) OnDestroyed()                         {}

const (
	bufferOpcodeDestroy uint16 = 0
	bufferEventRelease  uint16 = 0
)

// Buffer is a single shared-memory-backed pixel buffer.
type Buffer struct {
	wlclient.BaseProxy
	released bool
}

// Released reports whether the compositor has sent the release event,
// meaning the client may reuse the backing memory.
func (b *Buffer) Released() bool { return b.released }

func (b *Buffer) Destroy() error {
	err := b.SendRequest(bufferOpcodeDestroy, wire.NewBuilder())
	b.Connection().Unregister(b.ID())
	return err
}

func (b *Buffer) Dispatch(opcode uint16, _ *wire.Reader) error {
	if opcode == bufferEventRelease {
		b.released = true
	}
	return nil
}

func (b *Buffer) OnDestroyed() {}
