package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	goVerify "github.com/MrEthical07/goVerify"
	"github.com/MrEthical07/goVerify/internal/cliconfig"
)

var errVerificationFailed = errors.New("verification failed")

func newVerifyCmd() *cobra.Command {
	v := viper.New()
	var configFile string

	cmd := &cobra.Command{
		Use:   "verify <token|->",
		Short: "Verify a token's signature and claims",
		Long: `Verify checks the signature against --key and every claim against the
given policy. Settings may also come from GOVERIFY_* environment variables or
a --config file. On success the claims are printed as JSON; on failure the
failure kind is printed and the exit code is 1.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				v.SetConfigFile(configFile)
			}
			cfg, err := cliconfig.Load(v)
			if err != nil {
				return err
			}
			logger := cfg.Logger()
			logger.Debug("loaded config", "config", cfg.String())

			token, err := readToken(cmd, args[0])
			if err != nil {
				return err
			}
			set, err := cfg.KeySet()
			if err != nil {
				return err
			}

			policy := cfg.Policy()
			if err := policy.Validate(); err != nil {
				return err
			}
			lint := goVerify.DefaultConfig()
			lint.Policy = policy
			for _, w := range lint.Lint() {
				if w.Code == "audit_disabled" {
					continue
				}
				logger.Warn("weak policy", "code", w.Code, "detail", w.Message)
			}

			reject := func(kind goVerify.Kind, err error) error {
				logger.Info("token rejected", "kind", kind.String())
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", errVerificationFailed, kind)
				return fmt.Errorf("%w: %w", errVerificationFailed, err)
			}

			// Structure and allow-list failures are reported before key lookup.
			d, err := goVerify.DecodeUnverified(token)
			if err != nil {
				return reject(goVerify.KindOf(err), err)
			}
			if err := policy.Admit(d.Algorithm()); err != nil {
				return reject(goVerify.KindOf(err), err)
			}
			key, ok := set.Lookup(d.KeyID())
			if !ok {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: unknown_key_id\n", errVerificationFailed)
				return goVerify.ErrUnknownKeyID
			}

			claims, err := goVerify.VerifyToken(token, key, policy, time.Now())
			if err != nil {
				return reject(goVerify.KindOf(err), err)
			}

			out, err := json.MarshalIndent(claims, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file (yaml, json, or toml)")
	f.String("key", "", "public key file: PEM, JWK, or JWK Set")
	f.StringSlice("alg", nil, "allowed algorithms (default RS256)")
	f.String("issuer", "", "expected iss")
	f.StringSlice("audience", nil, "accepted aud values; any one must match")
	f.Duration("skew", 0, "clock skew tolerance (default 30s)")
	f.Bool("require-exp", true, "reject tokens without exp")
	f.Bool("require-iat", false, "reject tokens without iat")
	f.StringSlice("require-claim", nil, "custom claims that must be present")
	f.String("log-level", "", "DEBUG, INFO, WARN, or ERROR")
	f.String("log-format", "", "text or json")

	for _, name := range []string{"key", "alg", "issuer", "audience", "skew", "require-exp", "require-iat", "require-claim", "log-level", "log-format"} {
		// BindPFlag fails only for a nil flag, a mistake in the list above.
		if err := v.BindPFlag(strings.ReplaceAll(name, "-", "_"), f.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %q: %v", name, err))
		}
	}
	return cmd
}
