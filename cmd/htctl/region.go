package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"htgo/internal/app"
	"htgo/internal/protocol"
)

var (
	flagRegionRename  string
	flagRegionChannel int
)

var regionCmd = &cobra.Command{
	Use:   "region [id]",
	Short: "Show, switch, rename or assign channels to memory regions",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(rt *app.Runtime) error {
			if len(args) == 0 {
				state, _ := rt.Store.Snapshot()
				for _, rn := range state.RegionNames {
					marker := " "
					if int(rn.RegionID) == state.Region {
						marker = "*"
					}
					fmt.Printf("%s %2d  %s\n", marker, rn.RegionID, rn.Name)
				}

				return nil
			}

			id, err := strconv.ParseUint(args[0], 10, 8)
			if err != nil {
				return fmt.Errorf("parse region id: %w", err)
			}
			regionID := uint8(id)
			ctx := cmd.Context()

			if flagRegionRename != "" {
				rn := protocol.RegionName{RegionID: regionID, Name: flagRegionRename}
				if err := rt.Facade.SetRegionName(ctx, rn); err != nil {
					return err
				}
				fmt.Printf("region %d renamed to %q\n", regionID, flagRegionRename)

				return nil
			}

			if flagRegionChannel >= 0 {
				if err := rt.Facade.AssignChannelToRegion(ctx, regionID, uint8(flagRegionChannel)); err != nil {
					return err
				}
				fmt.Printf("channel %d assigned to region %d\n", flagRegionChannel, regionID)

				return nil
			}

			if err := rt.Facade.SetRegion(ctx, regionID); err != nil {
				return err
			}
			if err := rt.Hydrator.RehydrateChannels(ctx); err != nil {
				return err
			}
			fmt.Printf("switched to region %d\n", regionID)

			return nil
		})
	},
}

func init() {
	regionCmd.Flags().StringVar(&flagRegionRename, "rename", "", "Set the region's display name")
	regionCmd.Flags().IntVar(&flagRegionChannel, "assign-channel", -1, "Assign this channel id to the region")
	rootCmd.AddCommand(regionCmd)
}
