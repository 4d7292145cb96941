package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sabuysoft/wms-import/internal/api"
	"github.com/sabuysoft/wms-import/internal/importer"
)

func newConfigsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configs",
		Short: "Manage saved import configurations",
	}

	cmd.AddCommand(newConfigsListCmd())
	cmd.AddCommand(newConfigsSaveCmd())
	cmd.AddCommand(newConfigsDeleteCmd())

	return cmd
}

func newConfigsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <module>",
		Short: "List configurations for a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configs, err := apiClient(cmd).ListConfigs(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(configs) == 0 {
				fmt.Fprintln(out, "no saved configurations")
				return nil
			}

			fmt.Fprintf(out, "%-36s  %-10s  %-24s  %-10s  %s\n", "ID", "MODULE", "NAME", "PLATFORM", "URL")
			for _, c := range configs {
				fmt.Fprintf(out, "%-36s  %-10s  %-24s  %-10s  %s\n",
					c.ID, c.ModuleType, c.ConfigName, c.Platform, c.APIURL)
			}
			return nil
		},
	}
}

func newConfigsSaveCmd() *cobra.Command {
	var (
		name     string
		platform string
		apiURL   string
		dataPath string
		apiKey   string
		shopName string
	)

	cmd := &cobra.Command{
		Use:   "save <module>",
		Short: "Create or update a configuration",
		Long: `Save a configuration under a name. Saving again with the same
module and name updates the existing configuration; leaving --api-key
unset keeps a previously stored credential.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := importer.GetModule(args[0]); !ok {
				return fmt.Errorf("unknown module %q (have: %s)", args[0], strings.Join(importer.ModuleKeys(), ", "))
			}

			key := apiKey
			if key == "" {
				key = api.MaskedCredential
			}

			saved, err := apiClient(cmd).SaveConfig(cmd.Context(), api.SavedConfig{
				ModuleType: args[0],
				ConfigName: name,
				Platform:   platform,
				APIURL:     apiURL,
				DataPath:   dataPath,
				APIKey:     key,
				ShopName:   shopName,
				IsActive:   true,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "saved %q (%s)\n", saved.ConfigName, saved.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "configuration name (required)")
	cmd.Flags().StringVar(&apiURL, "url", "", "source API URL (required)")
	cmd.Flags().StringVar(&platform, "platform", "", "marketplace platform")
	cmd.Flags().StringVar(&dataPath, "data-path", "", "dot-separated path to the row array")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "bearer credential, omit to keep the stored one")
	cmd.Flags().StringVar(&shopName, "shop", "", "default shop name")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("url")

	return cmd
}

func newConfigsDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a configuration",
		Long: `Delete a saved configuration. The configuration is shown first and
the delete only runs after confirmation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pending, err := apiClient(cmd).StartDelete(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "About to delete %q (%s, module %s)\n",
				pending.Config.ConfigName, pending.Config.ID, pending.Config.ModuleType)

			if !yes {
				fmt.Fprint(out, "Proceed? [y/N] ")
				line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				answer := strings.ToLower(strings.TrimSpace(line))
				if answer != "y" && answer != "yes" {
					fmt.Fprintln(out, "aborted")
					return nil
				}
			}

			if err := pending.Confirm(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(out, "deleted")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without asking")

	return cmd
}
