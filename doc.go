// Package wlgo is a client-side Wayland protocol runtime: a wire codec,
// an event-loop abstraction, a connection with registry-driven global
// binding, and a set of protocol extensions built on top of it.
//
// # Core runtime
//
// Package wlclient owns the connection lifecycle: socket handshake,
// object ID allocation with server-acknowledged reuse, the registry,
// and message dispatch. Package wire implements the framed wire codec.
// Package eventloop provides the Adapter interface plus a poll-based
// implementation, a coroutine scheduler, and host-loop integrations.
//
//	poll := eventloop.NewPoll(100 * time.Millisecond)
//	conn, err := wlclient.Connect(poll)
//	core.InstallAutoBind(conn)
//	conn.RunInitialSync(func() {
//		seat, _ := core.BindSeat(conn)
//		keyboards, _ := virtualkeyboard.Bind(conn)
//		kb, _ := keyboards.CreateVirtualKeyboard(seat, keymap.PlatformLookup)
//		kb.TypeString("hello")
//	})
//	for { poll.RunOnce() }
//
// # Protocol extensions
//
// Package protocol/core implements wl_output, wl_seat, and wl_shm.
// Package protocol/virtualpointer, protocol/virtualkeyboard, and
// protocol/pointerconstraints implement pointer and keyboard input
// injection and capture. Package protocol/foreigntoplevel and
// protocol/cosmicworkspaces expose window and workspace management.
// Package protocol/datacontrol and protocol/idlenotify round out the
// compositor-introspection surface.
//
// # Clipboard transfer
//
// Package datatransfer implements the idle-timeout-supervised pipe read
// used to receive a clipboard offer's payload; package
// protocol/virtualkeyboard/keymap implements the on-demand XKB keymap
// serializer virtual keyboards upload.
//
// # Thread safety
//
// The runtime is single-threaded and cooperative: every proxy, the
// object table, and the ID allocator are only ever touched from the
// goroutine driving the event loop. There are no internal locks.
//
// # cmd/wlctl
//
// cmd/wlctl is a terminal client built on this library for listing and
// controlling toplevel windows and reading the clipboard selection.
package wlgo
