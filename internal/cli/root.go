package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/dontsign/internal/logging"
	"github.com/ppiankov/dontsign/internal/model"
)

// Version is set at build time
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dontsign",
	Short: "DontSign - contract risk analysis before you sign",
	Long: `DontSign reads a contract, terms of service or agreement, splits it into
sections and asks a language model to flag potential risks, important
clauses and recommendations. Results are merged into one report.

DontSign is not a lawyer. Treat its output as a checklist, not advice.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "dontsign %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.dontsign/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig loads .env, then the config file and DONTSIGN_* variables
func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env: %v\n", err)
	}

	if err := setDefaults(viper.GetViper(), model.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".dontsign"))
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	bindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// optionalKeys are omitted from the marshaled defaults when empty, so they
// need explicit env bindings
var optionalKeys = []string{
	"llm.api_key", "llm.base_url", "llm.http_proxy", "llm.https_proxy", "llm.no_proxy",
	"http.http_proxy", "http.https_proxy", "http.no_proxy",
	"sentry.dsn", "prompts_file", "output.dir",
}

// bindEnv maps DONTSIGN_SECTION_KEY variables onto section.key
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("DONTSIGN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range optionalKeys {
		_ = v.BindEnv(key)
	}
}

// setDefaults registers every default key so environment variables can
// override nested values
func setDefaults(v *viper.Viper, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}
	setDefaultTree(v, "", tree)
	return nil
}

func setDefaultTree(v *viper.Viper, prefix string, tree map[string]interface{}) {
	for key, val := range tree {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		// models is a map keyed by analysis type; keep it whole
		if sub, ok := val.(map[string]interface{}); ok && full != "models" {
			setDefaultTree(v, full, sub)
			continue
		}
		v.SetDefault(full, val)
	}
}

// loadConfig resolves the effective configuration. Provider keys fall back
// to the conventional OPENAI_API_KEY, ANTHROPIC_API_KEY and OLLAMA_BASE_URL.
func loadConfig() (*model.Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, model.WrapError(model.KindConfiguration, "invalid configuration", err)
	}
	cfg.Models = canonicalModelKeys(cfg.Models)

	providerCredentials(&cfg.LLM)
	if cfg.Sentry.DSN == "" {
		cfg.Sentry.DSN = os.Getenv("SENTRY_DSN")
	}
	return cfg, nil
}

// providerCredentials fills an empty API key or base URL from the
// provider's conventional environment variable
func providerCredentials(c *model.LLMConfig) {
	if c.APIKey == "" {
		switch strings.ToLower(c.Provider) {
		case "openai":
			c.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic", "claude":
			c.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	if c.BaseURL == "" && strings.EqualFold(c.Provider, "ollama") {
		c.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
}

// canonicalModelKeys restores the casing of analysis type keys, which viper
// lowercases. Entries decoded from viper win over the built-in defaults.
func canonicalModelKeys(models map[string]model.ModelParams) map[string]model.ModelParams {
	known := []string{model.AnalysisTypeAnalysis, model.AnalysisTypeSummary, model.AnalysisTypeDocumentType}
	out := make(map[string]model.ModelParams, len(models))
	for k, v := range models {
		if _, exists := out[k]; !exists {
			out[k] = v
		}
		for _, name := range known {
			if k != name && strings.EqualFold(k, name) {
				out[name] = v
				delete(out, k)
			}
		}
	}
	return out
}

func newCLILogger() (*zap.Logger, error) {
	return logging.NewCLI(verbose)
}
