package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/zskroll/internal/app"
	"github.com/dropDatabas3/zskroll/internal/config"
	"github.com/dropDatabas3/zskroll/internal/observability/logger"
	"github.com/dropDatabas3/zskroll/internal/security/secretbox"
	"github.com/dropDatabas3/zskroll/internal/zsk"
)

var version = "dev"

func main() {
	var (
		flagConfig   string
		flagEnvFile  string
		flagEnvOnly  bool
		flagEndpoint string
		flagVerbose  bool
	)

	root := &cobra.Command{
		Use:           "zskroll",
		Short:         "Rollover de ZSKs DNSSEC por pre-publicación",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "ruta a config.yaml")
	root.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "ruta a .env")
	root.PersistentFlags().BoolVar(&flagEnvOnly, "env", false, "usar SOLO env (ignora config.yaml)")
	root.PersistentFlags().StringVar(&flagEndpoint, "endpoint", "", "endpoint de la plataforma (pisa config)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log a nivel debug")

	loadCfg := func() (*config.Config, error) {
		if flagEnvFile != "" {
			_ = godotenv.Load(flagEnvFile)
		}
		var cfg *config.Config
		var err error
		switch {
		case flagEnvOnly:
			cfg, err = config.Default()
		case flagConfig != "":
			cfg, err = config.Load(flagConfig)
		case fileExists("configs/config.yaml"):
			cfg, err = config.Load("configs/config.yaml")
		default:
			cfg, err = config.Default()
		}
		if err != nil {
			return nil, err
		}
		if flagEndpoint != "" {
			cfg.Platform.Endpoint = flagEndpoint
		}
		level := cfg.Log.Level
		if flagVerbose {
			level = "debug"
		}
		logger.Init(logger.Config{
			Env:         cfg.App.Env,
			Level:       level,
			ServiceName: "zskroll",
			Version:     version,
		})
		return cfg, nil
	}

	runOnce := func(dryRun bool) error {
		cfg, err := loadCfg()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx := context.Background()
		c, err := app.Build(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()
		c.Runner.DryRun = dryRun

		rep, err := c.Runner.Run(ctx)
		if err != nil {
			return err
		}
		printReport(rep.Outcome, rep.Planned, rep.Applied)
		return nil
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Evalúa el inventario y aplica el rollover si corresponde",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(false)
		},
	}

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Muestra qué haría una corrida, sin mutar nada",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(true)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Lista el inventario de claves clasificado",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			ctx := context.Background()
			c, err := app.Build(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			keys, err := c.Client.ZSKInfo(ctx)
			if err != nil {
				return err
			}
			printKeys(keys)

			if _, err := zsk.Classify(keys); err != nil {
				return fmt.Errorf("inventory is not rollable: %w", err)
			}
			return nil
		},
	}

	encCmd := &cobra.Command{
		Use:   "enc [value]",
		Short: "Cifra un secreto de configuración con ZSKROLL_MASTER_KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagEnvFile != "" {
				_ = godotenv.Load(flagEnvFile)
			}
			ct, err := secretbox.Encrypt(args[0])
			if err != nil {
				return err
			}
			fmt.Println("enc:" + ct)
			return nil
		},
	}

	root.AddCommand(checkCmd, planCmd, listCmd, encCmd)
	// sin subcomando, check es el default
	root.RunE = checkCmd.RunE

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func printReport(outcome string, planned []string, applied int) {
	fmt.Printf("outcome: %s\n", outcome)
	if len(planned) == 0 {
		fmt.Println("nothing to do")
		return
	}
	fmt.Println("plan:")
	for i, p := range planned {
		mark := " "
		if i < applied {
			mark = "✓"
		}
		fmt.Printf("  %s %s\n", mark, p)
	}
}

func printKeys(keys []zsk.Key) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATE\tCREATED AGO\tDEACTIVATED AGO\tMAX TTL")
	for _, k := range keys {
		state := "pre-published"
		switch {
		case k.Activated:
			state = "active"
		case k.Deactivated():
			state = "deactivated"
		}
		deact := "-"
		if k.Deactivated() {
			deact = (time.Duration(k.DeactivatedAgo) * time.Second).String()
		}
		ttl := "-"
		if k.MaxTTL > 0 {
			ttl = fmt.Sprintf("%ds", k.MaxTTL)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			k.ID, state,
			(time.Duration(k.CreatedAgo) * time.Second).String(),
			deact, ttl,
		)
	}
	_ = w.Flush()
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
