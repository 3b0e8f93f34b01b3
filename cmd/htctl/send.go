package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"htgo/internal/app"
	"htgo/internal/protocol"
)

var (
	flagSendData    string
	flagSendText    string
	flagSendChannel int
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a TNC data fragment",
	Long: `Send one data fragment to the device for over-the-air transmission.
The payload comes from --data (hex) or --text (UTF-8) and is split into
fragments when it exceeds the per-fragment wire limit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := sendPayload()
		if err != nil {
			return err
		}

		fragments, err := splitFragments(payload, flagSendChannel)
		if err != nil {
			return err
		}

		return withRuntime(cmd, func(rt *app.Runtime) error {
			for _, frag := range fragments {
				if err := rt.Facade.SendDataFragment(cmd.Context(), frag); err != nil {
					return err
				}
			}
			fmt.Printf("sent %d bytes in %d fragment(s)\n", len(payload), len(fragments))

			return nil
		})
	},
}

func init() {
	sendCmd.Flags().StringVar(&flagSendData, "data", "", "Payload as hex")
	sendCmd.Flags().StringVar(&flagSendText, "text", "", "Payload as UTF-8 text")
	sendCmd.Flags().IntVar(&flagSendChannel, "channel", -1, "Transmit on this channel id instead of the active one")
	rootCmd.AddCommand(sendCmd)
}

func sendPayload() ([]byte, error) {
	switch {
	case flagSendData != "" && flagSendText != "":
		return nil, fmt.Errorf("--data and --text are mutually exclusive")
	case flagSendData != "":
		payload, err := hex.DecodeString(strings.ReplaceAll(flagSendData, " ", ""))
		if err != nil {
			return nil, fmt.Errorf("decode --data hex: %w", err)
		}

		return payload, nil
	case flagSendText != "":
		return []byte(flagSendText), nil
	default:
		return nil, fmt.Errorf("one of --data or --text is required")
	}
}

// splitFragments chops the payload at the per-fragment limit, tagging the
// last piece as final. The fragment id field is 6 bits wide, so payloads
// needing more than MaxDataFragmentID+1 fragments are rejected.
func splitFragments(payload []byte, channel int) ([]protocol.DataFragment, error) {
	if len(payload) > (protocol.MaxDataFragmentID+1)*protocol.MaxDataFragmentLen {
		return nil, fmt.Errorf("payload needs more than %d fragments: %d bytes",
			protocol.MaxDataFragmentID+1, len(payload))
	}

	var fragments []protocol.DataFragment
	for id := 0; len(payload) > 0 || id == 0; id++ {
		n := len(payload)
		if n > protocol.MaxDataFragmentLen {
			n = protocol.MaxDataFragmentLen
		}
		frag := protocol.DataFragment{
			FragmentID:      uint8(id),
			Data:            payload[:n],
			IsFinalFragment: n == len(payload),
		}
		if channel >= 0 {
			frag.WithChannelID = true
			frag.ChannelID = uint8(channel)
		}
		fragments = append(fragments, frag)
		payload = payload[n:]
	}

	return fragments, nil
}
