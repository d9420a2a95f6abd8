package commands

import (
	"crypto/rand"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"duskwire/internal/config"
	"duskwire/internal/engine"
	"duskwire/internal/rlog"
)

var (
	configPath string
	debug      bool
	opts       config.Options
	cryptoEng  *engine.CryptoEngine
)

// fileOptions mirrors the subset of config.Options a TOML file can override
// (spec §4.11's "--config decoded with github.com/BurntSushi/toml, mapping
// onto the same Options fields").
type fileOptions struct {
	MaxRatchetSteps       int    `toml:"max_ratchet_steps"`
	MaxSkippedKeys        int    `toml:"max_skipped_keys"`
	SkippedKeyTTL         string `toml:"skipped_key_ttl"`
	MaxMessageKeysPerStep int    `toml:"max_message_keys_per_step"`
	ExportableKeys        bool   `toml:"exportable_keys"`
}

func Execute() error {
	root := &cobra.Command{
		Use:   "ratchetctl",
		Short: "Exercise the double ratchet core over an in-process transport",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts = config.DefaultOptions()
			if configPath != "" {
				var fo fileOptions
				if _, err := toml.DecodeFile(configPath, &fo); err != nil {
					return fmt.Errorf("reading %s: %w", configPath, err)
				}
				applyFileOptions(fo)
			}
			if debug {
				opts.Debug = true
				opts.Logger = rlog.New("ratchetctl")
			}
			cryptoEng = engine.New(rand.Reader)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "TOML file overriding the default Options")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable state-transition logging")

	root.AddCommand(identityCmd(), handshakeCmd(), simulateCmd())
	root.SetOut(os.Stdout)
	return root.Execute()
}

func applyFileOptions(fo fileOptions) {
	if fo.MaxRatchetSteps != 0 {
		opts.MaxRatchetSteps = fo.MaxRatchetSteps
	}
	if fo.MaxSkippedKeys != 0 {
		opts.MaxSkippedKeys = fo.MaxSkippedKeys
	}
	if fo.SkippedKeyTTL != "" {
		if d, err := time.ParseDuration(fo.SkippedKeyTTL); err == nil {
			opts.SkippedKeyTTL = d
		}
	}
	if fo.MaxMessageKeysPerStep != 0 {
		opts.MaxMessageKeysPerStep = fo.MaxMessageKeysPerStep
	}
	opts.ExportableKeys = fo.ExportableKeys
}
