package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ecakir/sofra-cli/internal/domain"
)

func newConfigureCommand(deps Dependencies) *cobra.Command {
	var profileName string
	var token string
	var lat float64
	var lon float64
	var makeDefault bool
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Create and manage local profile configuration.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name := strings.TrimSpace(profileName)
			if name == "" {
				return fmt.Errorf("%s", requiredArg("--profile-name"))
			}

			existingCfg, loadErr := deps.Config.Load(cmd.Context())
			hasExisting := loadErr == nil
			if hasExisting && !overwrite {
				index := findProfileIndex(existingCfg, name)
				if index < 0 {
					existingCfg.Profiles = append(existingCfg.Profiles, domain.Profile{Name: name})
					index = len(existingCfg.Profiles) - 1
				}
				if strings.TrimSpace(token) != "" {
					existingCfg.Profiles[index].Token = strings.TrimSpace(token)
				}
				if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
					existingCfg.Profiles[index].Location = domain.Location{Lat: lat, Lon: lon}
				}
				if makeDefault {
					for i := range existingCfg.Profiles {
						existingCfg.Profiles[i].IsDefault = i == index
					}
				}
				if err := deps.Config.Save(cmd.Context(), existingCfg); err != nil {
					return err
				}
				return writeTable(cmd, fmt.Sprintf("Profile %q updated.", name), "")
			}

			cfg := domain.Config{
				Profiles: []domain.Profile{
					{
						Name:      name,
						IsDefault: true,
						Token:     strings.TrimSpace(token),
						Location:  domain.Location{Lat: lat, Lon: lon},
					},
				},
			}
			if err := deps.Config.Save(cmd.Context(), cfg); err != nil {
				return err
			}
			return writeTable(cmd, fmt.Sprintf("Config created at %s.", deps.Config.Path()), "")
		},
	}

	cmd.Flags().StringVar(&profileName, "profile-name", "default", "Profile name.")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token saved with the profile for authenticated commands.")
	cmd.Flags().Float64Var(&lat, "lat", 0, "Default latitude saved with the profile.")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Default longitude saved with the profile.")
	cmd.Flags().BoolVar(&makeDefault, "default", false, "Make this profile the default.")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing config.")
	return cmd
}
