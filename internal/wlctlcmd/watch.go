package wlctlcmd

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/corvidwl/wlgo/protocol/datacontrol"
	"github.com/corvidwl/wlgo/protocol/foreigntoplevel"
)

var stateNames = map[uint32]string{
	foreigntoplevel.StateMaximized:  "maximized",
	foreigntoplevel.StateMinimized:  "minimized",
	foreigntoplevel.StateActivated:  "activated",
	foreigntoplevel.StateFullscreen: "fullscreen",
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Log toplevel and clipboard changes until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cyan := color.New(color.FgCyan)
		created := func(t *foreigntoplevel.TopLevel) {
			cyan.Printf("new toplevel created: @%d\n", t.ID())
			t.OnSynced(func(snap foreigntoplevel.Snapshot) {
				fmt.Printf("toplevel @%d synced: app_id=%s title=%q states=%s\n",
					t.ID(), snap.AppID, snap.Title, formatStates(snap.States))
			})
			t.OnClosed(func() {
				fmt.Printf("toplevel @%d closed\n", t.ID())
			})
		}

		s, err := connect(created)
		if err != nil {
			return err
		}
		defer s.close()

		if mgr, dev, err := s.bindDataControl(); err == nil {
			_ = mgr
			dev.OnSelection(func(offer *datacontrol.Offer) { logSelection("main", offer) })
			dev.OnPrimarySelection(func(offer *datacontrol.Offer) { logSelection("primary", offer) })
		}

		stop := make(chan struct{})
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sig
			close(stop)
		}()

		s.pumpForever(stop)
		return nil
	},
}

func logSelection(slot string, offer *datacontrol.Offer) {
	if offer == nil {
		fmt.Printf("%s selection cleared\n", slot)
		return
	}
	fmt.Printf("new %s selection offers:\n", slot)
	for _, mime := range offer.MimeTypes() {
		fmt.Printf("  %s\n", mime)
	}
}

func formatStates(states map[uint32]bool) string {
	var names []string
	for s, on := range states {
		if on {
			names = append(names, stateNames[s])
		}
	}
	if len(names) == 0 {
		return "-"
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
