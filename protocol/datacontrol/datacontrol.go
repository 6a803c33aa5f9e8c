// Package datacontrol implements the wlr-data-control extension (C6):
// clipboard control via a manager, a per-seat device with two selection
// slots, offers, and sources. Receiving an offer's payload is delegated
// to package datatransfer (C7); this package owns the wire-level
// messages for both directions, including handling of the source's
// "send" event.
package datacontrol

import (
	"io"

	"github.com/corvidwl/wlgo/eventloop"
	"github.com/corvidwl/wlgo/wire"
	"github.com/corvidwl/wlgo/wlclient"
)

const (
	managerInterface = "zwlr_data_control_manager_v1"
	maxVersion       = 2
)

const (
	managerOpcodeCreateDataSource uint16 = 0
	managerOpcodeGetDataDevice    uint16 = 1
)

const (
	deviceOpcodeSetSelection        uint16 = 0
	deviceOpcodeDestroy             uint16 = 1
	deviceOpcodeSetPrimarySelection uint16 = 2
)

const (
	deviceEventDataOffer        uint16 = 0
	deviceEventSelection        uint16 = 1
	deviceEventFinished         uint16 = 2
	deviceEventPrimarySelection uint16 = 3
)

const (
	offerOpcodeReceive uint16 = 0
	offerOpcodeDestroy uint16 = 1
)

const offerEventOffer uint16 = 0

const (
	sourceOpcodeOffer   uint16 = 0
	sourceOpcodeDestroy uint16 = 1
)

const (
	sourceEventSend     uint16 = 0
	sourceEventCancelled uint16 = 1
)

// Manager creates sources and per-seat devices.
type Manager struct {
	wlclient.BaseProxy
}

func Bind(conn *wlclient.Connection) (*Manager, error) {
	p, err := conn.Bind(managerInterface, 0, maxVersion, func(id, version uint32) wlclient.Proxy {
		m := &Manager{}
		m.InitBaseProxy(conn, id, managerInterface, version)
		return m
	})
	if err != nil {
		return nil, err
	}
	return p.(*Manager), nil
}

// CreateDataSource creates a new, as-yet-unbound source: call Offer for
// each MIME type before handing it to Device.SetSelection.
func (m *Manager) CreateDataSource() (*Source, error) {
	id := m.Connection().NewObjectID()
	b := wire.NewBuilder().PutUint32(id)
	if err := m.SendRequest(managerOpcodeCreateDataSource, b); err != nil {
		return nil, err
	}
	s := &Source{}
	s.InitBaseProxy(m.Connection(), id, "zwlr_data_control_source_v1", m.Version())
	m.Connection().RegisterProxy(s)
	return s, nil
}

// GetDataDevice returns the clipboard device for the given seat.
func (m *Manager) GetDataDevice(seat wlclient.Proxy) (*Device, error) {
	id := m.Connection().NewObjectID()
	b := wire.NewBuilder().PutUint32(id).PutUint32(seat.ID())
	if err := m.SendRequest(managerOpcodeGetDataDevice, b); err != nil {
		return nil, err
	}
	d := &Device{offers: make(map[uint32]*Offer)}
	d.InitBaseProxy(m.Connection(), id, "zwlr_data_control_device_v1", m.Version())
	m.Connection().RegisterProxy(d)
	return d, nil
}

func (m *Manager) Dispatch(uint16, *wire.Reader) error { return nil }
func (m *Manager) OnDestroyed()                         {}

// Device surfaces the regular and primary selection slots for one seat.
type Device struct {
	wlclient.BaseProxy

	offers    map[uint32]*Offer
	selection *Offer
	primary   *Offer

	onSelection        func(*Offer)
	onPrimarySelection func(*Offer)
}

func (d *Device) OnSelection(cb func(*Offer))        { d.onSelection = cb }
func (d *Device) OnPrimarySelection(cb func(*Offer)) { d.onPrimarySelection = cb }
func (d *Device) Selection() *Offer                  { return d.selection }
func (d *Device) PrimarySelection() *Offer           { return d.primary }

func (d *Device) SetSelection(source *Source) error {
	var id uint32
	if source != nil {
		id = source.ID()
	}
	return d.SendRequest(deviceOpcodeSetSelection, wire.NewBuilder().PutUint32(id))
}

func (d *Device) SetPrimarySelection(source *Source) error {
	var id uint32
	if source != nil {
		id = source.ID()
	}
	return d.SendRequest(deviceOpcodeSetPrimarySelection, wire.NewBuilder().PutUint32(id))
}

func (d *Device) Destroy() error {
	err := d.SendRequest(deviceOpcodeDestroy, wire.NewBuilder())
	d.Connection().Unregister(d.ID())
	return err
}

func (d *Device) Dispatch(opcode uint16, r *wire.Reader) error {
	switch opcode {
	case deviceEventDataOffer:
		id, err := r.Uint32()
		if err != nil {
			return err
		}
		o := &Offer{mimeTypes: make(map[string]bool)}
		o.InitBaseProxy(d.Connection(), id, "zwlr_data_control_offer_v1", d.Version())
		d.Connection().RegisterProxy(o)
		d.offers[id] = o
		return nil
	case deviceEventSelection:
		id, err := r.Uint32()
		if err != nil {
			return err
		}
		d.replaceSlot(&d.selection, id)
		if d.onSelection != nil {
			d.onSelection(d.selection)
		}
		return nil
	case deviceEventPrimarySelection:
		id, err := r.Uint32()
		if err != nil {
			return err
		}
		d.replaceSlot(&d.primary, id)
		if d.onPrimarySelection != nil {
			d.onPrimarySelection(d.primary)
		}
		return nil
	case deviceEventFinished:
		return nil
	default:
		return nil
	}
}

// replaceSlot implements the selection-replacement contract: id of 0
// clears the slot, otherwise it must reference a previously advertised
// offer; the previous offer (if any) is destroyed and dropped from the
// offers map.
func (d *Device) replaceSlot(slot **Offer, id uint32) {
	if *slot != nil {
		prev := *slot
		delete(d.offers, prev.ID())
		prev.Destroy()
	}
	if id == 0 {
		*slot = nil
		return
	}
	*slot = d.offers[id]
}

func (d *Device) OnDestroyed() {}

// Offer enumerates MIME types via repeated offer events before a
// selection event references it.
type Offer struct {
	wlclient.BaseProxy
	mimeTypes map[string]bool
}

func (o *Offer) MimeTypes() []string {
	out := make([]string, 0, len(o.mimeTypes))
	for m := range o.mimeTypes {
		out = append(out, m)
	}
	return out
}

func (o *Offer) HasMimeType(m string) bool { return o.mimeTypes[m] }

// Receive sends the receive request carrying the write end of a pipe the
// caller has already created; it does not read from the pipe itself —
// that is package datatransfer's job (C7).
func (o *Offer) Receive(mimeType string, writeFD int) error {
	b := wire.NewBuilder().PutString(mimeType).PutFD(writeFD)
	return o.SendRequest(offerOpcodeReceive, b)
}

func (o *Offer) Destroy() error {
	err := o.SendRequest(offerOpcodeDestroy, wire.NewBuilder())
	o.Connection().Unregister(o.ID())
	return err
}

func (o *Offer) Dispatch(opcode uint16, r *wire.Reader) error {
	if opcode != offerEventOffer {
		return nil
	}
	v, err := r.String()
	if err != nil {
		return err
	}
	o.mimeTypes[v] = true
	return nil
}

func (o *Offer) OnDestroyed() {}

// writer is the subset of eventloop.Poll's extension surface send needs;
// satisfied by *eventloop.Poll.
type writer interface {
	RegisterWriter(fd int, cb eventloop.ReaderFunc) error
	UnregisterWriter(fd int) error
}

// Source is a clipboard content offer the client advertises to the
// compositor.
type Source struct {
	wlclient.BaseProxy

	produce     func(mimeType string) io.Reader
	sendLoop    writer
	onCancelled func()
}

// Offer advertises one MIME type this source can provide.
func (s *Source) Offer(mimeType string) error {
	return s.SendRequest(sourceOpcodeOffer, wire.NewBuilder().PutString(mimeType))
}

func (s *Source) Destroy() error {
	err := s.SendRequest(sourceOpcodeDestroy, wire.NewBuilder())
	s.Connection().Unregister(s.ID())
	return err
}

func (s *Source) OnCancelled(cb func()) { s.onCancelled = cb }

// SetPayload registers the function that produces the io.Reader to
// stream when the compositor asks for this MIME type via the send event.
// This is the Open Question's resolution: the source's send handler was
// unimplemented upstream; here it registers the provided FD with the
// event loop for write-readiness and streams the reader non-blocking,
// closing the FD on EOF or error.
func (s *Source) SetPayload(loop writer, produce func(mimeType string) io.Reader) {
	s.produce = produce
	s.sendLoop = loop
}

func (s *Source) Dispatch(opcode uint16, r *wire.Reader) error {
	switch opcode {
	case sourceEventSend:
		mimeType, err := r.String()
		if err != nil {
			return err
		}
		fd, err := r.FD()
		if err != nil {
			return err
		}
		s.handleSend(mimeType, fd)
		return nil
	case sourceEventCancelled:
		if s.onCancelled != nil {
			s.onCancelled()
		}
		return nil
	default:
		return nil
	}
}

func (s *Source) handleSend(mimeType string, fd int) {
	if s.produce == nil || s.sendLoop == nil {
		closeFD(fd)
		return
	}
	reader := s.produce(mimeType)
	if reader == nil {
		closeFD(fd)
		return
	}
	streamToFD(s.Connection(), s.sendLoop, fd, reader)
}

func (s *Source) OnDestroyed() {}
