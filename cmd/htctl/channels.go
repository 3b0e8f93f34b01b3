package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"htgo/internal/app"
	"htgo/internal/device"
	"htgo/internal/protocol"
)

var flagShowEmpty bool

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List the hydrated channel table of the current region",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(rt *app.Runtime) error {
			state, _ := rt.Store.Snapshot()

			if region := regionLabel(state); region != "" {
				fmt.Printf("Region: %s\n", region)
			}

			ids := make([]int, 0, len(state.Channels))
			for id := range state.Channels {
				ids = append(ids, id)
			}
			sort.Ints(ids)

			for _, id := range ids {
				ch := state.Channels[id]
				if ch.Empty() && !flagShowEmpty {
					continue
				}
				fmt.Println(formatChannel(ch))
			}

			return nil
		})
	},
}

func init() {
	channelsCmd.Flags().BoolVar(&flagShowEmpty, "show-empty", false, "Include unconfigured slots")
	rootCmd.AddCommand(channelsCmd)
}

func regionLabel(state device.RadioState) string {
	for _, rn := range state.RegionNames {
		if int(rn.RegionID) == state.Region {
			return fmt.Sprintf("%d (%s)", state.Region, rn.Name)
		}
	}
	if len(state.RegionNames) == 0 {
		return ""
	}

	return fmt.Sprintf("%d", state.Region)
}

func formatChannel(ch protocol.Channel) string {
	label := fmt.Sprintf("%3d", ch.ChannelID)
	switch ch.ChannelID {
	case protocol.ChannelVFOA:
		label = "VFO-A"
	case protocol.ChannelVFOB:
		label = "VFO-B"
	case protocol.ChannelNOAAMonitor:
		label = "NOAA"
	}
	if ch.Empty() {
		return fmt.Sprintf("%s  <empty>", label)
	}

	bw := "N"
	if ch.Wide {
		bw = "W"
	}

	return fmt.Sprintf("%s  %-10s rx %10.5f MHz  tx %10.5f MHz  %s %s rx:%s tx:%s",
		label, ch.Name, ch.RxFreq, ch.TxFreq, modLabel(ch.RxMod), bw,
		subAudioLabel(ch.RxSubAudio), subAudioLabel(ch.TxSubAudio))
}

func modLabel(m protocol.Modulation) string {
	switch m {
	case protocol.ModulationFM:
		return "FM"
	case protocol.ModulationAM:
		return "AM"
	case protocol.ModulationDMR:
		return "DMR"
	default:
		return fmt.Sprintf("mod(%d)", m)
	}
}

func subAudioLabel(sa protocol.SubAudio) string {
	switch sa.Kind {
	case protocol.SubAudioNone:
		return "-"
	case protocol.SubAudioDCS:
		return fmt.Sprintf("DCS%d", sa.DCS)
	case protocol.SubAudioCTCSS:
		return fmt.Sprintf("%.1fHz", sa.Hz)
	default:
		return "?"
	}
}
