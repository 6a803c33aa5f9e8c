// Package core implements the core Wayland interfaces (C5): Seat,
// Output, and the shared-memory buffer family (Shm/ShmPool/Buffer).
// Display and Registry live in wlclient since every connection needs
// them regardless of which extension protocols are in use.
package core

import (
	"github.com/corvidwl/wlgo/wire"
	"github.com/corvidwl/wlgo/wlclient"
)

const outputMaxVersion uint32 = 4

const (
	outputEventGeometry    uint16 = 0
	outputEventMode        uint16 = 1
	outputEventDone        uint16 = 2
	outputEventScale       uint16 = 3
	outputEventName        uint16 = 4
	outputEventDescription uint16 = 5
)

// ModeCurrent is set on the mode event's flags argument when it
// describes the output's current mode.
const ModeCurrent uint32 = 0x1

// Output models a single display/monitor, auto-bound by the registry as
// soon as it is advertised (§4.5).
type Output struct {
	wlclient.BaseProxy

	X, Y                   int32
	PhysicalWidth, PhysicalHeight int32
	Subpixel               int32
	Make, Model            string
	Transform              int32
	Scale                  int32
	Width, Height          int32
	RefreshMilliHz         int32
	Name, Description      string
}

// InstallAutoBind registers the factory the registry invokes for every
// wl_output global as it is advertised. Call this once, immediately
// after wlclient.Connect and before the initial sync, so no wl_output
// global is missed.
func InstallAutoBind(conn *wlclient.Connection) {
	conn.Registry().SetOutputFactory(func(c *wlclient.Connection, globalID uint32, _ uint32) wlclient.Proxy {
		p, err := c.Bind("wl_output", globalID, outputMaxVersion, func(id, version uint32) wlclient.Proxy {
			o := &Output{}
			o.InitBaseProxy(c, id, "wl_output", version)
			return o
		})
		if err != nil {
			c.Logger().Error().Err(err).Msg("failed to auto-bind wl_output")
			return nil
		}
		return p
	})
}

func (o *Output) Dispatch(opcode uint16, r *wire.Reader) error {
	switch opcode {
	case outputEventGeometry:
		var err error
		if o.X, err = r.Int32(); err != nil {
			return err
		}
		if o.Y, err = r.Int32(); err != nil {
			return err
		}
		if o.PhysicalWidth, err = r.Int32(); err != nil {
			return err
		}
		if o.PhysicalHeight, err = r.Int32(); err != nil {
			return err
		}
		if o.Subpixel, err = r.Int32(); err != nil {
			return err
		}
		if o.Make, err = r.String(); err != nil {
			return err
		}
		if o.Model, err = r.String(); err != nil {
			return err
		}
		if o.Transform, err = r.Int32(); err != nil {
			return err
		}
		return nil
	case outputEventMode:
		flags, err := r.Uint32()
		if err != nil {
			return err
		}
		width, err := r.Int32()
		if err != nil {
			return err
		}
		height, err := r.Int32()
		if err != nil {
			return err
		}
		refresh, err := r.Int32()
		if err != nil {
			return err
		}
		if flags&ModeCurrent != 0 {
			o.Width, o.Height, o.RefreshMilliHz = width, height, refresh
		}
		return nil
	case outputEventScale:
		v, err := r.Int32()
		if err != nil {
			return err
		}
		o.Scale = v
		return nil
	case outputEventName:
		v, err := r.String()
		if err != nil {
			return err
		}
		o.Name = v
		return nil
	case outputEventDescription:
		v, err := r.String()
		if err != nil {
			return err
		}
		o.Description = v
		return nil
	case outputEventDone:
		return nil
	default:
		return nil
	}
}

func (o *Output) OnDestroyed() {}
