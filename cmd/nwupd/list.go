package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available add-ons",
	Long:  `List every add-on the manifest offers, in manifest order, with installed state.`,
	Run: func(cmd *cobra.Command, args []string) {
		app := loadApp(cmd.Context())
		jsonOutput, _ := cmd.Flags().GetBool("json")

		if jsonOutput {
			type addonJSON struct {
				Name        string `json:"name"`
				Description string `json:"description"`
				TargetPath  string `json:"target_path"`
				Kind        string `json:"kind"`
				Installed   bool   `json:"installed"`
			}
			out := make([]addonJSON, 0, len(app.addons))
			for _, a := range app.addons {
				out = append(out, addonJSON{
					Name:        a.Name,
					Description: a.Description,
					TargetPath:  a.TargetPath,
					Kind:        a.Kind.String(),
					Installed:   app.manager.IsInstalled(a.Name),
				})
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				exitWithCode(ExitGeneral)
			}
			return
		}

		if len(app.addons) == 0 {
			fmt.Println("The manifest lists no add-ons.")
			return
		}

		fmt.Printf("Available add-ons (%d total):\n\n", len(app.addons))
		for _, a := range app.addons {
			fmt.Printf("  %s %-24s %s\n", installedMark(app.manager.IsInstalled(a.Name)), a.Name, a.Description)
		}
	},
}

func init() {
	listCmd.Flags().Bool("json", false, "output as JSON")
}
