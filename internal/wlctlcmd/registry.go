package wlctlcmd

import "github.com/spf13/cobra"

func registerCommands(root *cobra.Command) {
	root.AddCommand(listCmd)
	root.AddCommand(clipboardCmd)
	root.AddCommand(watchCmd)

	for _, action := range []string{
		"activate", "focus", "close",
		"maximize", "unmaximize",
		"minimize", "unminimize",
		"fullscreen", "unfullscreen",
	} {
		root.AddCommand(newWindowActionCmd(action))
	}
}
