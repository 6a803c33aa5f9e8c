package wlctlcmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/corvidwl/wlgo/datatransfer"
	"github.com/corvidwl/wlgo/protocol/datacontrol"
)

var preferredClipboardMimeTypes = []string{
	"text/plain;charset=utf-8",
	"UTF8_STRING",
}

var clipboardCmd = &cobra.Command{
	Use:   "clipboard",
	Short: "Print the current clipboard selection",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := connect(nil)
		if err != nil {
			return err
		}
		defer s.close()

		_, dev, err := s.bindDataControl()
		if err != nil {
			return err
		}

		result := make(chan error, 1)
		reported := false
		report := func(err error) {
			if reported {
				return
			}
			reported = true
			result <- err
		}
		dev.OnSelection(func(offer *datacontrol.Offer) {
			if offer == nil {
				report(fmt.Errorf("no clipboard selection is set"))
				return
			}
			mime, ok := pickMimeType(offer)
			if !ok {
				report(fmt.Errorf("offer has no readable MIME type"))
				return
			}
			if err := datatransfer.Receive(s.poll, offer, mime, func(data []byte) {
				if data == nil {
					report(fmt.Errorf("clipboard transfer timed out or was empty"))
					return
				}
				fmt.Print(string(data))
				report(nil)
			}); err != nil {
				report(err)
			}
		})

		return s.pumpUntil(result, 10*time.Second)
	},
}

func pickMimeType(offer *datacontrol.Offer) (string, bool) {
	for _, mime := range preferredClipboardMimeTypes {
		if offer.HasMimeType(mime) {
			return mime, true
		}
	}
	types := offer.MimeTypes()
	if len(types) == 0 {
		return "", false
	}
	return types[0], true
}
