package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [addon]...",
	Short: "Show installed state",
	Long: `Show the installed state of add-ons, derived from the filesystem right now.

With no arguments, every manifest add-on is shown. Named add-ons that the
manifest does not list are reported as unknown.`,
	Run: func(cmd *cobra.Command, args []string) {
		app := loadApp(cmd.Context())
		app.manager.Refresh()

		names := args
		if len(names) == 0 {
			for _, a := range app.addons {
				names = append(names, a.Name)
			}
		}

		var unknown int
		for _, name := range names {
			if _, ok := app.manager.Get(name); !ok {
				fmt.Printf("  %s %s (not in manifest)\n", "[ unknown ]", name)
				unknown++
				continue
			}
			fmt.Printf("  %s %s\n", installedMark(app.manager.IsInstalled(name)), name)
		}

		if unknown > 0 {
			exitWithCode(ExitUsage)
		}
	},
}
