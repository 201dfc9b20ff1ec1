package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Monetiqai/Monetiq-sub003/internal/auth"
	"github.com/Monetiqai/Monetiq-sub003/internal/services"
)

const (
	keyServer     = "server"
	keyToken      = "token"
	keyJSON       = "json"
	keyTimeout    = "timeout"
	keyJWTSecret  = "jwt-secret"
	keyJWTIssuer  = "jwt-issuer"
	configName    = ".adpackctl"
	envPrefix     = "ADPACKCTL"
	defaultServer = "http://localhost:8080"
)

type commandContext struct {
	v          *viper.Viper
	configFlag string
}

func (c *commandContext) client() *Client {
	return NewClient(c.v.GetString(keyServer), c.v.GetString(keyToken), c.v.GetDuration(keyTimeout))
}

func (c *commandContext) jsonOutput() bool { return c.v.GetBool(keyJSON) }

// loadConfig reads --config, else ~/.adpackctl.yaml when present. Flags and
// ADPACKCTL_* variables override file values.
func (c *commandContext) loadConfig() error {
	if c.configFlag != "" {
		c.v.SetConfigFile(c.configFlag)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		c.v.SetConfigFile(filepath.Join(home, configName+".yaml"))
	}
	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			if c.configFlag != "" {
				return fmt.Errorf("config file %s: %w", c.configFlag, err)
			}
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// NewRootCommand builds the adpackctl command tree.
func NewRootCommand() *cobra.Command {
	ctx := &commandContext{v: viper.New()}
	ctx.v.SetEnvPrefix(envPrefix)
	ctx.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	ctx.v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "adpackctl",
		Short:         "Operate ad packs: generate, review, pick a winner, promote",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&ctx.configFlag, "config", "c", "", "config file (default ~/.adpackctl.yaml)")
	pf.String(keyServer, defaultServer, "ad pack API base URL")
	pf.String(keyToken, "", "bearer token")
	pf.Bool(keyJSON, false, "output JSON")
	pf.Duration(keyTimeout, 5*time.Minute, "request timeout")
	for _, k := range []string{keyServer, keyToken, keyJSON, keyTimeout} {
		_ = ctx.v.BindPFlag(k, pf.Lookup(k))
	}

	root.AddCommand(newGenerateCommand(ctx))
	root.AddCommand(newPackCommand(ctx))
	root.AddCommand(newVariantCommand(ctx))
	root.AddCommand(newTokenCommand(ctx))
	return root
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var in services.GenerateInput
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a pack of four FAST variants for a product",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := ctx.client().Generate(cmd.Context(), in)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, res)
			}
			printGenerate(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.ProductID, "product-id", "", "product id")
	cmd.Flags().StringVar(&in.ProductName, "product-name", "", "product name")
	cmd.Flags().StringVar(&in.Category, "category", "", "product category")
	cmd.Flags().StringVar(&in.Template, "template", "", "visual template")
	_ = cmd.MarkFlagRequired("product-id")
	_ = cmd.MarkFlagRequired("product-name")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func newPackCommand(ctx *commandContext) *cobra.Command {
	pack := &cobra.Command{Use: "pack", Short: "Inspect packs"}

	get := &cobra.Command{
		Use:   "get <pack-id>",
		Short: "Show a pack and its variants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			reply, err := ctx.client().GetPack(cmd.Context(), id)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, reply)
			}
			printPack(cmd.OutOrStdout(), reply.Pack, reply.Variants)
			return nil
		},
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent packs",
		RunE: func(cmd *cobra.Command, args []string) error {
			packs, err := ctx.client().ListPacks(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, packs)
			}
			printPacks(cmd.OutOrStdout(), packs)
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "maximum packs to list")

	pack.AddCommand(get, list)
	return pack
}

func newVariantCommand(ctx *commandContext) *cobra.Command {
	variant := &cobra.Command{Use: "variant", Short: "Act on a variant"}

	variant.AddCommand(&cobra.Command{
		Use:   "validate <variant-id>",
		Short: "Confirm all four shots are present",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			v, err := ctx.client().Validate(cmd.Context(), id)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, v)
			}
			printVariants(cmd.OutOrStdout(), v)
			return nil
		},
	})

	variant.AddCommand(&cobra.Command{
		Use:   "winner <variant-id>",
		Short: "Mark the pack's winner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			reply, err := ctx.client().MarkWinner(cmd.Context(), id)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, reply)
			}
			printPack(cmd.OutOrStdout(), reply.Pack, reply.Variants)
			return nil
		},
	})

	variant.AddCommand(&cobra.Command{
		Use:   "promote <variant-id>",
		Short: "Re-render the validated winner with the FINAL model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			v, err := ctx.client().Promote(cmd.Context(), id)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, v)
			}
			printVariants(cmd.OutOrStdout(), v)
			return nil
		},
	})

	variant.AddCommand(&cobra.Command{
		Use:   "assets <variant-id>",
		Short: "List recorded shot assets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			assets, err := ctx.client().Assets(cmd.Context(), id)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, assets)
			}
			printAssets(cmd.OutOrStdout(), assets)
			return nil
		},
	})

	var outcome services.RenderOutcome
	report := &cobra.Command{
		Use:   "render-outcome <variant-id>",
		Short: "Report the video render result for a variant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			v, err := ctx.client().ReportRenderOutcome(cmd.Context(), id, outcome)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, v)
			}
			printVariants(cmd.OutOrStdout(), v)
			return nil
		},
	}
	report.Flags().BoolVar(&outcome.Succeeded, "succeeded", false, "render succeeded")
	report.Flags().StringVar(&outcome.VideoURL, "video-url", "", "rendered video URL")
	report.Flags().StringVar(&outcome.Error, "error", "", "render error message")
	variant.AddCommand(report)

	return variant
}

func newTokenCommand(ctx *commandContext) *cobra.Command {
	token := &cobra.Command{Use: "token", Short: "Manage API tokens"}

	var owner string
	var ttl time.Duration
	mint := &cobra.Command{
		Use:   "mint",
		Short: "Mint a bearer token for an owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			ownerID := uuid.New()
			if owner != "" {
				id, err := parseID(owner)
				if err != nil {
					return err
				}
				ownerID = id
			}
			cfg := auth.JWTConfig{
				Secret: ctx.v.GetString(keyJWTSecret),
				Issuer: ctx.v.GetString(keyJWTIssuer),
				TTL:    ttl,
			}
			tok, err := auth.MintToken(cfg, ownerID, time.Now())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]string{"ownerId": ownerID.String(), "token": tok})
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	mint.Flags().StringVar(&owner, "owner", "", "owner id (random when empty)")
	mint.Flags().String(keyJWTSecret, "", "HS256 signing secret")
	mint.Flags().String(keyJWTIssuer, "adpack", "token issuer")
	mint.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = ctx.v.BindPFlag(keyJWTSecret, mint.Flags().Lookup(keyJWTSecret))
	_ = ctx.v.BindPFlag(keyJWTIssuer, mint.Flags().Lookup(keyJWTIssuer))

	token.AddCommand(mint)
	return token
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", raw, err)
	}
	return id, nil
}
