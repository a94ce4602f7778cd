package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove <addon>...",
	Aliases: []string{"uninstall"},
	Short:   "Remove installed add-ons",
	Long: `Remove the named add-ons from the game directory.

Removal also sweeps sibling files and folders whose name contains the
add-on's name, so remnants from older archive layouts are cleaned up.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app := loadApp(cmd.Context())

		var failed int
		for _, name := range args {
			if _, ok := app.manager.Get(name); !ok {
				fmt.Fprintf(os.Stderr, "Unknown add-on: %s (see 'nwupd list')\n", name)
				failed++
				continue
			}

			if !app.manager.IsInstalled(name) {
				fmt.Printf("%s is not installed\n", name)
				continue
			}

			fmt.Printf("Removing %s...\n", name)
			if err := app.manager.Toggle(name); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				failed++
				continue
			}
			app.manager.Wait()

			if app.manager.IsInstalled(name) {
				fmt.Fprintf(os.Stderr, "Removal of %s did not complete; some files may remain\n", name)
				failed++
				continue
			}
			fmt.Printf("Removed %s\n", name)
		}

		if failed > 0 {
			exitWithCode(ExitRemoveFailed)
		}
	},
}
