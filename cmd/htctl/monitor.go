package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"htgo/internal/app"
	"htgo/internal/events"
	"htgo/internal/protocol"
)

var (
	flagListenFor time.Duration
	flagRawFrames bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Stream live device events",
	Long: `Stream status, channel, settings and beacon change events plus received
data fragments until interrupted or --listen-for elapses. The link is
managed in the background: on transport failure the radio is reconnected
and re-read, and the last known state is kept while the link is down.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStreamingRuntime(cmd, func(rt *app.Runtime) error {
			topics := []string{
				events.TopicConnStatus,
				events.TopicStatus,
				events.TopicChannel,
				events.TopicSettings,
				events.TopicBeacon,
				events.TopicDataFragment,
				events.TopicUnknownEvent,
			}
			if flagRawFrames {
				topics = append(topics, events.TopicRawFrameIn, events.TopicRawFrameOut)
			}

			sub := rt.Bus.Subscribe(topics...)
			defer rt.Bus.Unsubscribe(sub)

			ctx := cmd.Context()
			if flagListenFor > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, flagListenFor)
				defer cancel()
			}

			fmt.Println("listening for events, ctrl-c to stop")
			for {
				select {
				case <-ctx.Done():
					return nil
				case raw, ok := <-sub:
					if !ok {
						return nil
					}
					if status, ok := raw.(events.ConnStatus); ok {
						printConnStatus(rt, status)

						continue
					}
					printEvent(raw)
				}
			}
		})
	},
}

func init() {
	monitorCmd.Flags().DurationVar(&flagListenFor, "listen-for", 0, "Stop after this duration (0 = until interrupted)")
	monitorCmd.Flags().BoolVar(&flagRawFrames, "raw", false, "Also print raw frame hex")
	rootCmd.AddCommand(monitorCmd)
}

func printConnStatus(rt *app.Runtime, status events.ConnStatus) {
	ts := time.Now().Format("15:04:05.000")
	if status.Err != "" {
		fmt.Printf("%s link %s (%s %s): %s\n", ts, status.State, status.TransportName, status.Target, status.Err)
	} else {
		fmt.Printf("%s link %s (%s %s)\n", ts, status.State, status.TransportName, status.Target)
	}
	if status.State == events.ConnectionStateDisconnected {
		if snap, ok := rt.LastGoodSnapshot(); ok {
			fmt.Printf("%s keeping last known state: %d channel(s), active ch %d\n",
				ts, len(snap.Channels), snap.Status.CurrChannelID)
		}
	}
}

func printEvent(raw any) {
	ts := time.Now().Format("15:04:05.000")
	switch v := raw.(type) {
	case protocol.Status:
		fmt.Printf("%s status: ch=%d region=%d rssi=%.0f tx=%t rx=%t scan=%t\n",
			ts, v.CurrChannelID, v.CurrRegion, v.RSSI, v.IsInTx, v.IsInRx, v.IsScan)
	case protocol.Channel:
		fmt.Printf("%s channel %d updated: %s\n", ts, v.ChannelID, v.Name)
	case protocol.Settings:
		fmt.Printf("%s settings updated: chA=%d chB=%d\n", ts, v.ChannelA, v.ChannelB)
	case protocol.BeaconSettings:
		fmt.Printf("%s beacon settings updated: callsign=%s\n", ts, v.AprsCallsign)
	case protocol.DataFragment:
		fmt.Printf("%s data fragment %d (final=%t): %s\n",
			ts, v.FragmentID, v.IsFinalFragment, hex.EncodeToString(v.Data))
	case events.UnknownEvent:
		fmt.Printf("%s unknown event tag %d: %s\n", ts, v.Tag, hex.EncodeToString(v.Payload))
	case events.RawFrame:
		fmt.Printf("%s frame (%d bytes): %s\n", ts, v.Len, v.Hex)
	}
}
