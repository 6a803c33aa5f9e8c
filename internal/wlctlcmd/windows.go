package wlctlcmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/corvidwl/wlgo/protocol/foreigntoplevel"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List open windows",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := connect(nil)
		if err != nil {
			return err
		}
		defer s.close()
		printWindowTable(s.toplevels.TopLevels())
		return nil
	},
}

var windowActions = map[string]func(*foreigntoplevel.TopLevel, *session) error{
	"activate": func(t *foreigntoplevel.TopLevel, s *session) error { return t.Activate(s.seat) },
	"focus":    func(t *foreigntoplevel.TopLevel, s *session) error { return t.Activate(s.seat) },
	"close":           func(t *foreigntoplevel.TopLevel, s *session) error { return t.Close() },
	"maximize":        func(t *foreigntoplevel.TopLevel, s *session) error { return t.SetMaximized(true) },
	"unmaximize":      func(t *foreigntoplevel.TopLevel, s *session) error { return t.SetMaximized(false) },
	"minimize":        func(t *foreigntoplevel.TopLevel, s *session) error { return t.SetMinimized(true) },
	"unminimize":      func(t *foreigntoplevel.TopLevel, s *session) error { return t.SetMinimized(false) },
	"fullscreen":      func(t *foreigntoplevel.TopLevel, s *session) error { return t.SetFullscreen(true, nil) },
	"unfullscreen":    func(t *foreigntoplevel.TopLevel, s *session) error { return t.SetFullscreen(false, nil) },
}

func newWindowActionCmd(action string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <target>",
		Short: "Send " + action + " to a matching window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := connect(nil)
			if err != nil {
				return err
			}
			defer s.close()

			target, err := findWindow(s.toplevels.TopLevels(), args[0])
			if err != nil {
				return err
			}
			fn := windowActions[action]
			if err := fn(target, s); err != nil {
				return err
			}
			return s.roundtrip()
		},
	}
}

// findWindow resolves a target string to exactly one window, per the
// reference tool's matcher prefixes: #handle, @app_id, =title,
// :title-substring.
func findWindow(windows []*foreigntoplevel.TopLevel, target string) (*foreigntoplevel.TopLevel, error) {
	if len(target) < 2 {
		return nil, fmt.Errorf("invalid target %q: expected #handle, @app_id, =title, or :substring", target)
	}
	prefix, value := target[0], target[1:]

	var matches []*foreigntoplevel.TopLevel
	for _, w := range windows {
		switch prefix {
		case '#':
			if id, err := strconv.ParseUint(value, 10, 32); err == nil && uint32(id) == w.ID() {
				matches = append(matches, w)
			}
		case '@':
			if strings.EqualFold(w.AppID(), value) {
				matches = append(matches, w)
			}
		case '=':
			if strings.EqualFold(w.Title(), value) {
				matches = append(matches, w)
			}
		case ':':
			if strings.Contains(strings.ToLower(w.Title()), strings.ToLower(value)) {
				matches = append(matches, w)
			}
		default:
			return nil, fmt.Errorf("invalid target %q: must start with #, @, =, or :", target)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no window matches target %q", target)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("target %q matches %d windows, refusing to guess", target, len(matches))
	}
}

func printWindowTable(windows []*foreigntoplevel.TopLevel) {
	if len(windows) == 0 {
		fmt.Println("No windows opened")
		return
	}
	bold := color.New(color.Bold)
	bold.Printf("%-10s  %-24s  %s\n", "HANDLE", "APP ID", "TITLE")
	for _, w := range windows {
		fmt.Printf("%-10d  %-24s  %s\n", w.ID(), w.AppID(), w.Title())
	}
}
