package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"jhove2/internal/framework"
	"jhove2/internal/modules"
)

type moduleView struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	ReleaseDate  string   `json:"release_date"`
	Capabilities []string `json:"capabilities"`
	Note         string   `json:"note,omitempty"`
}

func newModulesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "modules",
		Short: "List the modules and recognizers a run would use",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			settings, err := framework.SettingsFromConfig(cfg)
			if err != nil {
				return err
			}
			fw, err := framework.New(framework.Options{Settings: settings})
			if err != nil {
				return err
			}
			if err := modules.Install(fw, modules.OptionsFromConfig(cfg)); err != nil {
				return err
			}

			var views []moduleView
			for _, m := range fw.Modules() {
				base := m.Base()
				info := base.Info()
				view := moduleView{
					ID:          base.ID().String(),
					Name:        info.Name,
					Version:     info.Version,
					ReleaseDate: info.ReleaseDate,
					Note:        info.Note,
				}
				for _, c := range base.Capabilities().List() {
					view.Capabilities = append(view.Capabilities, c.String())
				}
				views = append(views, view)
			}
			if asJSON {
				return writeJSON(cmd, views)
			}

			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{v.Name, v.Version, strings.Join(v.Capabilities, ", "), v.ID})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Module", "Version", "Capabilities", "Identifier"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print modules as JSON")
	return cmd
}
