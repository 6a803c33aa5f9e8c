// Command wlctl lists and controls Wayland toplevel windows and
// inspects the clipboard selection from the terminal.
package main

import "github.com/corvidwl/wlgo/internal/wlctlcmd"

func main() {
	wlctlcmd.Execute()
}
