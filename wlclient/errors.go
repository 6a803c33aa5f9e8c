package wlclient

import (
	"strconv"

	"github.com/corvidwl/wlgo/wlerr"
)

func envMissingErr() error {
	return wlerr.New(wlerr.KindEnvironmentMissing, "XDG_RUNTIME_DIR and WAYLAND_DISPLAY must both be set")
}

func connectFailedErr(underlying error) error {
	return wlerr.Wrap(wlerr.KindConnectFailed, "failed to connect to compositor socket", underlying)
}

func programmerErr(msg string) error {
	return wlerr.New(wlerr.KindProgrammerError, msg)
}

func unsupportedProtocolErr(iface string) error {
	return wlerr.New(wlerr.KindUnsupportedProtocol, "interface not advertised: "+iface)
}

func wlDisconnectedDuringRoundtrip() error {
	return wlerr.New(wlerr.KindDisconnected, "connection closed while waiting for roundtrip sync")
}

func itoa(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}
