package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install <addon>...",
	Short: "Install add-ons",
	Long: `Download and install the named add-ons from the manifest.

Already-installed add-ons are skipped unless --force is given, in which
case they are removed and reinstalled fresh.

Examples:
  nwupd install Foo
  nwupd install Foo Bar --force`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app := loadApp(cmd.Context())
		force, _ := cmd.Flags().GetBool("force")

		var failed int
		for _, name := range args {
			if _, ok := app.manager.Get(name); !ok {
				fmt.Fprintf(os.Stderr, "Unknown add-on: %s (see 'nwupd list')\n", name)
				failed++
				continue
			}

			if app.manager.IsInstalled(name) {
				if !force {
					fmt.Printf("%s is already installed (use --force to reinstall)\n", name)
					continue
				}
				// Reinstall: toggle away the current copy first.
				if err := app.manager.Toggle(name); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					failed++
					continue
				}
				app.manager.Wait()
			}

			fmt.Printf("Installing %s...\n", name)
			if err := app.manager.Toggle(name); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				failed++
				continue
			}
			app.manager.Wait()

			if !app.manager.IsInstalled(name) {
				fmt.Fprintf(os.Stderr, "Install of %s did not complete; run with --verbose for detail\n", name)
				failed++
				continue
			}
			fmt.Printf("Installed %s\n", name)
		}

		if failed > 0 {
			exitWithCode(ExitInstallFailed)
		}
	},
}

func init() {
	installCmd.Flags().Bool("force", false, "reinstall even if already installed")
}
