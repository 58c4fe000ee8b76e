package main

import (
	"fmt"

	"github.com/edgeo-scada/uatypes"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		info := uatypes.GetVersion()
		fmt.Printf("uatypes-cli version %s\n", info.Version)
	},
}
