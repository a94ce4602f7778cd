package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Install everything the manifest lists",
	Long: `Install every manifest add-on that is not currently installed.

Installs run in parallel, one worker per add-on. Already-installed add-ons
are left untouched; use 'nwupd install --force' to refresh one.`,
	Run: func(cmd *cobra.Command, args []string) {
		app := loadApp(cmd.Context())
		app.manager.Refresh()

		var started []string
		for _, a := range app.addons {
			if app.manager.IsInstalled(a.Name) {
				continue
			}
			if err := app.manager.Toggle(a.Name); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			started = append(started, a.Name)
		}

		if len(started) == 0 {
			fmt.Println("Everything is already installed.")
			return
		}

		fmt.Printf("Installing %d add-on(s)...\n", len(started))
		app.manager.Wait()

		var failed int
		for _, name := range started {
			if app.manager.IsInstalled(name) {
				fmt.Printf("  installed %s\n", name)
			} else {
				fmt.Fprintf(os.Stderr, "  FAILED    %s\n", name)
				failed++
			}
		}

		if failed > 0 {
			fmt.Fprintf(os.Stderr, "\n%d install(s) failed; rerun with --verbose for detail\n", failed)
			exitWithCode(ExitInstallFailed)
		}
	},
}
