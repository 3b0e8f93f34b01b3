package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"htgo/internal/app"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show device identity, capabilities and battery state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(rt *app.Runtime) error {
			state, _ := rt.Store.Snapshot()
			info := state.DeviceInfo

			fmt.Printf("Vendor/Product:  %#02x / %#04x\n", info.VendorID, info.ProductID)
			fmt.Printf("Hardware:        v%d\n", info.HWVersion)
			fmt.Printf("Firmware:        v%d\n", info.SoftVersion)
			fmt.Printf("Channels:        %d (+%d regions)\n", info.ChannelCount, info.RegionCount)
			fmt.Printf("Capabilities:    vfo=%t dmr=%t noaa=%t gmrs=%t medium_power=%t\n",
				info.SupportVFO, info.SupportDMR, info.SupportNOAA, info.GMRS, info.SupportMediumPower)

			if volts, err := rt.Facade.GetBatteryVoltage(cmd.Context()); err == nil {
				fmt.Printf("Battery:         %.2f V", volts)
				if pct, err := rt.Facade.GetBatteryPercentage(cmd.Context()); err == nil {
					fmt.Printf(" (%d%%)", pct)
				}
				fmt.Println()
			}

			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
