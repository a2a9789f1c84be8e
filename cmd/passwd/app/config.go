package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/ubuntu/decorate"
	"github.com/ubuntu/gopasswd/internal/consts"
	"github.com/ubuntu/gopasswd/internal/environ"
	"github.com/ubuntu/gopasswd/internal/users/localentries"
	"github.com/ubuntu/gopasswd/log"
)

// envKeys maps the environment variables, without prefix, to configuration keys.
var envKeys = map[string]string{
	"VERBOSITY":    "verbosity",
	"JOURNAL":      "journal",
	"USERS_SOURCE": "users_source",
	"PATHS_SHADOW": "paths.shadow",
	"PATHS_PASSWD": "paths.passwd",
}

// privilegedKeys can only be set from the environment by root, as they
// change which files are trusted.
var privilegedKeys = map[string]bool{
	"users_source": true,
	"paths.shadow": true,
	"paths.passwd": true,
}

func (a *App) loadConfig(cmd *cobra.Command, env environ.Snapshot, amroot bool) (err error) {
	// Set config defaults
	a.config = passwdConfig{
		UsersSource: string(localentries.SourceFiles),
		Paths: systemPaths{
			Shadow: consts.DefaultShadowPath,
			Passwd: consts.DefaultPasswdPath,
		},
	}

	// Install and unmarshall configuration
	if err := initViperConfig(cmdName, cmd, a.viper, a.options.configDir, env, amroot); err != nil {
		return err
	}
	if err := a.viper.Unmarshal(&a.config); err != nil {
		return fmt.Errorf("unable to decode configuration into struct: %w", err)
	}

	setVerboseMode(a.config.Verbosity)
	if log.InitJournalHandler(a.config.Journal, env.Get("JOURNAL_STREAM")) {
		log.Debug(context.Background(), "Logging to the systemd journal")
	}
	log.Debugf(context.Background(), "Verbosity: %d", a.config.Verbosity)

	return nil
}

// initViperConfig sets verbosity level and add config env variables and file support based on name prefix.
// Environment variables are read from env, never from the process.
func initViperConfig(name string, cmd *cobra.Command, vip *viper.Viper, configDir string, env environ.Snapshot, amroot bool) (err error) {
	defer decorate.OnError(&err, "can't load configuration")

	// Get cmdline flag for verbosity to configure logger until we have everything parsed.
	v, err := cmd.Flags().GetCount("verbosity")
	if err != nil {
		return fmt.Errorf("internal error: no persistent verbosity flag installed on cmd: %w", err)
	}
	setVerboseMode(v)

	// Handle configuration.
	if v, err := cmd.Flags().GetString("config"); err == nil && v != "" {
		if !amroot {
			return fmt.Errorf("%w: only root can use a specific configuration file", ErrPermissionDenied)
		}
		vip.SetConfigFile(v)
	} else {
		// The configuration is trusted: only look for it where root controls it.
		vip.SetConfigName(name)
		vip.SetConfigType("yaml")
		vip.AddConfigPath(configDir)
	}

	if err := vip.ReadInConfig(); err != nil {
		var e viper.ConfigFileNotFoundError
		if errors.As(err, &e) {
			log.Infof(context.Background(), "No configuration file: %v.\nWe will only use the defaults, env variables or flags.", e)
		} else {
			return fmt.Errorf("invalid configuration file: %w", err)
		}
	} else {
		log.Infof(context.Background(), "Using configuration file: %v", vip.ConfigFileUsed())
	}

	// Handle environment.
	fromEnv, err := configFromEnv(name, env, amroot)
	if err != nil {
		return err
	}
	if err := vip.MergeConfigMap(fromEnv); err != nil {
		return fmt.Errorf("could not merge environment variables: %w", err)
	}

	return nil
}

// configFromEnv returns the configuration set by environment variables
// prefixed by the command name, as nested maps.
func configFromEnv(name string, env environ.Snapshot, amroot bool) (map[string]any, error) {
	prefix := strings.ToUpper(name) + "_"
	cfg := make(map[string]any)

	for envName, value := range env.WithPrefix(prefix) {
		key, ok := envKeys[strings.TrimPrefix(envName, prefix)]
		if !ok {
			log.Debugf(context.Background(), "Ignoring unknown configuration variable %s", envName)
			continue
		}
		if privilegedKeys[key] && !amroot {
			log.Warningf(context.Background(), "Ignoring %s: only root can set it", envName)
			continue
		}

		parts := strings.Split(key, ".")
		m := cfg
		for _, p := range parts[:len(parts)-1] {
			sub, ok := m[p].(map[string]any)
			if !ok {
				sub = make(map[string]any)
				m[p] = sub
			}
			m = sub
		}
		m[parts[len(parts)-1]] = value
	}

	return cfg, nil
}

// installConfigFlag installs a --config option.
func installConfigFlag(cmd *cobra.Command) *string {
	return cmd.PersistentFlags().StringP("config", "c", "", "use a specific configuration file (root only)")
}

// installVerbosityFlag adds the -v and -vv options and returns the reference to it.
func installVerbosityFlag(cmd *cobra.Command, viper *viper.Viper) *int {
	r := cmd.PersistentFlags().CountP("verbosity", "v", "issue INFO (-v) or DEBUG (-vv) output")
	decorate.LogOnError(viper.BindPFlag("verbosity", cmd.PersistentFlags().Lookup("verbosity")))
	return r
}

// setVerboseMode change ErrorFormat and logs between very, middly and non verbose.
func setVerboseMode(level int) {
	switch level {
	case 0:
		log.SetLevel(consts.DefaultLogLevel)
	case 1:
		log.SetLevel(log.InfoLevel)
	default:
		log.SetLevel(log.DebugLevel)
	}
}
