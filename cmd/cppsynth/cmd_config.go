package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lexcodex/cppsynth/framework/config"
)

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.Path(flagWorkspace)
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or edit the workspace configuration",
	}
	cmd.AddCommand(newConfigInitCmd(), newConfigGetCmd(), newConfigSetCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a configuration value, falling back to the default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.ReadMap(configPath())
			if err != nil {
				return err
			}
			value, ok := config.GetValue(data, args[0])
			if !ok {
				defaults, err := defaultMap()
				if err != nil {
					return err
				}
				if value, ok = config.GetValue(defaults, args[0]); !ok {
					return fmt.Errorf("unknown key %s", args[0])
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), config.PrettyValue(value))
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults, err := defaultMap()
			if err != nil {
				return err
			}
			if _, ok := config.GetValue(defaults, args[0]); !ok {
				return fmt.Errorf("unknown key %s", args[0])
			}
			path := configPath()
			data, err := config.ReadMap(path)
			if err != nil {
				return err
			}
			if err := config.SetValue(data, args[0], config.ParseValue(args[1])); err != nil {
				return err
			}
			if err := validateMap(data); err != nil {
				return err
			}
			return config.WriteMap(path, data)
		},
	}
}

func defaultMap() (map[string]interface{}, error) {
	raw, err := yaml.Marshal(config.Default())
	if err != nil {
		return nil, err
	}
	out := map[string]interface{}{}
	return out, yaml.Unmarshal(raw, &out)
}

// validateMap checks the edited file before it is written.
func validateMap(data map[string]interface{}) error {
	tmp, err := os.CreateTemp("", "cppsynth-config-*.yaml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	tmp.Close()
	if err := config.WriteMap(tmp.Name(), data); err != nil {
		return err
	}
	_, err = config.NewLoader(flagWorkspace, tmp.Name()).Load()
	return err
}
