package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"htgo/internal/app"
	"htgo/internal/protocol"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show the device-wide settings record",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(rt *app.Runtime) error {
			state, _ := rt.Store.Snapshot()
			s := state.Settings

			fmt.Printf("Channel A / B:    %d / %d (dual watch: %s)\n", s.ChannelA, s.ChannelB, dualWatchLabel(s.DoubleChannel))
			fmt.Printf("Squelch:          %d\n", s.SquelchLevel)
			fmt.Printf("Mic gain:         %d (bt %d)\n", s.MicGain, s.BtMicGain)
			fmt.Printf("TX time limit:    %d\n", s.TxTimeLimit)
			fmt.Printf("Auto power off:   %d\n", s.AutoPowerOff)
			fmt.Printf("Screen timeout:   %d\n", s.ScreenTimeout)
			fmt.Printf("Scan resume:      %d\n", s.ScanResumeTime)
			fmt.Printf("Units:            %s\n", unitLabel(s.ImperialUnit))
			fmt.Printf("Power saving:     %t\n", s.PowerSavingMode)
			fmt.Printf("VFO freqs:        %d / %d\n", s.Vfo1ModFreqX, s.Vfo2ModFreqX)

			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
}

func dualWatchLabel(dc protocol.DoubleChannel) string {
	switch dc {
	case protocol.DoubleChannelA:
		return "A"
	case protocol.DoubleChannelB:
		return "B"
	default:
		return "off"
	}
}

func unitLabel(imperial bool) string {
	if imperial {
		return "imperial"
	}

	return "metric"
}
