package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage configured CalDAV/CardDAV sources",
	Long: `Manage the sources caldr syncs from. A source is one server account:
an endpoint plus credentials. All calendars and address books discovered
behind the endpoint belong to the source.

Endpoints can be a full context URL or a bare domain; bare domains are
resolved through well-known discovery when connecting.`,
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured sources",
	RunE:  runSourcesList,
}

var sourcesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one source's settings",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourcesShow,
}

var sourcesAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Add a source",
	Long: `Add a source to the config file.

Examples:
  caldr sources add fastmail --endpoint fastmail.com \
      --username me@fastmail.com --password-env CALDR_FASTMAIL_PASSWORD
  caldr sources add gcal --auth oauth \
      --endpoint "https://apidata.googleusercontent.com/caldav/v2/me@gmail.com/user/" \
      --credentials-file ~/.config/caldr/google.json \
      --token-file ~/.config/caldr/gcal-token.json`,
	Args: cobra.ExactArgs(1),
	RunE: runSourcesAdd,
}

var sourcesRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a source",
	Args:    cobra.ExactArgs(1),
	RunE:    runSourcesRemove,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesShowCmd)
	sourcesCmd.AddCommand(sourcesAddCmd)
	sourcesCmd.AddCommand(sourcesRemoveCmd)

	sourcesAddCmd.Flags().String("name", "", "Human-readable label")
	sourcesAddCmd.Flags().String("endpoint", "", "Server URL or bare domain for discovery")
	sourcesAddCmd.Flags().String("username", "", "Username for basic auth")
	sourcesAddCmd.Flags().String("auth", "basic", "Auth mode: basic or oauth")
	sourcesAddCmd.Flags().String("password", "", "Password (prefer --password-env)")
	sourcesAddCmd.Flags().String("password-env", "", "Environment variable holding the password")
	sourcesAddCmd.Flags().String("credentials-file", "", "OAuth client credentials JSON (oauth sources)")
	sourcesAddCmd.Flags().String("token-file", "", "Where the OAuth token is cached (oauth sources)")
	sourcesAddCmd.MarkFlagRequired("endpoint")
}

func runSourcesList(cmd *cobra.Command, args []string) error {
	sources, err := readSourcesFromConfig()
	if err != nil {
		return err
	}

	if len(sources) == 0 {
		fmt.Println("No sources configured.")
		fmt.Println("\nAdd one with: caldr sources add <id> --endpoint=<url>")
		return nil
	}

	fmt.Println("Configured sources:")
	fmt.Println("─────────────────────────────────────────────────")
	for _, sc := range sources {
		label := sc.ID
		if sc.Name != "" {
			label += " (" + sc.Name + ")"
		}
		fmt.Printf("  • %s\n", label)
		fmt.Printf("    endpoint: %s\n", sc.Endpoint)
	}
	fmt.Println("─────────────────────────────────────────────────")
	fmt.Println("\nUse 'caldr sources show <id>' for details")
	return nil
}

func runSourcesShow(cmd *cobra.Command, args []string) error {
	sources, err := readSourcesFromConfig()
	if err != nil {
		return err
	}
	for _, sc := range sources {
		if sc.ID != args[0] {
			continue
		}
		fmt.Printf("Source: %s\n", sc.ID)
		fmt.Println("─────────────────────────────────────────────────")
		printIfSet("name", sc.Name)
		printIfSet("endpoint", sc.Endpoint)
		printIfSet("username", sc.Username)
		printIfSet("auth", sc.Auth)
		if sc.Password != "" {
			fmt.Println("  password: (set)")
		}
		printIfSet("password_env", sc.PasswordEnv)
		printIfSet("credentials_file", sc.CredentialsFile)
		printIfSet("token_file", sc.TokenFile)
		for _, h := range sc.Hidden {
			fmt.Printf("  hidden: %s\n", h)
		}
		return nil
	}
	return fmt.Errorf("source '%s' not found", args[0])
}

func printIfSet(key, val string) {
	if val != "" {
		fmt.Printf("  %s: %s\n", key, val)
	}
}

func runSourcesAdd(cmd *cobra.Command, args []string) error {
	id := args[0]

	sources, err := readSourcesFromConfig()
	if err != nil {
		return err
	}
	for _, sc := range sources {
		if sc.ID == id {
			return fmt.Errorf("source '%s' already exists; remove it first to replace it", id)
		}
	}

	sc := sourceConfig{ID: id}
	sc.Name, _ = cmd.Flags().GetString("name")
	sc.Endpoint, _ = cmd.Flags().GetString("endpoint")
	sc.Username, _ = cmd.Flags().GetString("username")
	sc.Auth, _ = cmd.Flags().GetString("auth")
	sc.Password, _ = cmd.Flags().GetString("password")
	sc.PasswordEnv, _ = cmd.Flags().GetString("password-env")
	sc.CredentialsFile, _ = cmd.Flags().GetString("credentials-file")
	sc.TokenFile, _ = cmd.Flags().GetString("token-file")

	if sc.Auth == "oauth" && sc.TokenFile == "" {
		return fmt.Errorf("oauth sources need --token-file")
	}

	if err := writeSourcesToConfig(append(sources, sc)); err != nil {
		return fmt.Errorf("failed to save source: %w", err)
	}

	fmt.Printf("✓ Source '%s' added\n", id)
	if sc.Auth == "oauth" {
		fmt.Printf("\nAuthorize it with: caldr auth %s\n", id)
	}
	return nil
}

func runSourcesRemove(cmd *cobra.Command, args []string) error {
	id := args[0]

	sources, err := readSourcesFromConfig()
	if err != nil {
		return err
	}
	kept := sources[:0]
	for _, sc := range sources {
		if sc.ID != id {
			kept = append(kept, sc)
		}
	}
	if len(kept) == len(sources) {
		return fmt.Errorf("source '%s' not found", id)
	}

	if err := writeSourcesToConfig(kept); err != nil {
		return fmt.Errorf("failed to remove source: %w", err)
	}
	fmt.Printf("✓ Source '%s' removed\n", id)
	return nil
}

// Config file manipulation. The sources commands edit the file directly
// rather than through viper so unrelated keys survive untouched.

func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "caldr", "config.yaml")
}

func readConfigFile() (map[string]interface{}, error) {
	data, err := os.ReadFile(getConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]interface{}), nil
		}
		return nil, err
	}

	var config map[string]interface{}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	if config == nil {
		config = make(map[string]interface{})
	}
	return config, nil
}

func writeConfigFile(config map[string]interface{}) error {
	configPath := getConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0o600)
}

func readSourcesFromConfig() ([]sourceConfig, error) {
	config, err := readConfigFile()
	if err != nil {
		return nil, err
	}
	raw, ok := config["sources"]
	if !ok {
		return nil, nil
	}

	// Round-trip through YAML to decode the untyped list.
	data, err := yaml.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var sources []sourceConfig
	if err := yaml.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("malformed sources list: %w", err)
	}
	return sources, nil
}

func writeSourcesToConfig(sources []sourceConfig) error {
	config, err := readConfigFile()
	if err != nil {
		return err
	}
	config["sources"] = sources
	return writeConfigFile(config)
}
