package wlclient

import "github.com/corvidwl/wlgo/wire"

// wl_display opcodes, wire-protocol-stable.
const (
	displayOpcodeSync       uint16 = 0
	displayOpcodeGetRegistry uint16 = 1
)

const (
	displayEventError    uint16 = 0
	displayEventDeleteID uint16 = 1
)

// Display is the pre-installed proxy at object ID 1. It handles the two
// events every connection must understand (error, delete_id) and exposes
// the sync and get_registry requests.
type Display struct {
	BaseProxy
	lastError error
}

func newDisplay(conn *Connection) *Display {
	d := &Display{}
	d.InitBaseProxy(conn, displayObjectID, "wl_display", 1)
	return d
}

// LastError returns the most recently logged compositor error, if any.
// Display errors are logged and non-fatal at this layer (§4.5); the
// compositor typically closes the socket immediately after, which
// surfaces as a disconnected error from the transport instead.
func (d *Display) LastError() error { return d.lastError }

func (d *Display) Dispatch(opcode uint16, r *wire.Reader) error {
	switch opcode {
	case displayEventError:
		objectID, err := r.Uint32()
		if err != nil {
			return err
		}
		code, err := r.Uint32()
		if err != nil {
			return err
		}
		message, err := r.String()
		if err != nil {
			return err
		}
		d.lastError = wlDisplayError(objectID, code, message)
		d.Connection().log.Error().Uint32("object_id", objectID).Uint32("code", code).
			Str("message", message).Msg("compositor reported protocol error")
		return nil
	case displayEventDeleteID:
		id, err := r.Uint32()
		if err != nil {
			return err
		}
		d.Connection().handleDeleteID(id)
		return nil
	default:
		return nil
	}
}

func (d *Display) OnDestroyed() {}

func wlDisplayError(objectID, code uint32, message string) error {
	return &displayProtocolError{objectID: objectID, code: code, message: message}
}

type displayProtocolError struct {
	objectID uint32
	code     uint32
	message  string
}

func (e *displayProtocolError) Error() string {
	return "wl_display error on object " + itoa(e.objectID) + ": " + e.message
}

// getRegistry sends the get_registry request carrying the registry's
// freshly allocated object ID. Called once by newRegistry.
func (d *Display) getRegistry(registryID uint32) error {
	b := wire.NewBuilder().PutUint32(registryID)
	return d.SendRequest(displayOpcodeGetRegistry, b)
}
