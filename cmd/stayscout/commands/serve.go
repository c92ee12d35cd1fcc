package commands

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stayscout/stayscout/internal/browser"
	"github.com/stayscout/stayscout/internal/forward"
	"github.com/stayscout/stayscout/internal/jobs"
	"github.com/stayscout/stayscout/internal/logger"
	"github.com/stayscout/stayscout/internal/scrape"
	"github.com/stayscout/stayscout/internal/server"
	"github.com/stayscout/stayscout/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the extraction HTTP API",
	Long: `Serve exposes the engine over HTTP: POST /api/scrape starts an
asynchronous job, GET /api/jobs/:id reports its status, and
GET /api/listings lists persisted results when a database is
configured.

Database and webhook settings come from flags, the environment
(STAYSCOUT_DB_HOST and friends) or the config file.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()

	flags.String("addr", ":8080", "listen address")
	flags.Bool("headless", true, "run the browser headless")
	flags.Duration("nav-timeout", 60*time.Second, "page navigation timeout")
	flags.Bool("static-fallback", false, "allow plain-HTTP fetches when no Chrome binary is found")

	flags.String("db-host", "", "postgres host (empty disables persistence)")
	flags.Int("db-port", 5432, "postgres port")
	flags.String("db-user", "stayscout", "postgres user")
	flags.String("db-password", "", "postgres password")
	flags.String("db-name", "stayscout", "postgres database")
	flags.String("db-sslmode", "disable", "postgres sslmode")

	flags.String("webhook-url", "", "forward successful extractions to this URL")
	flags.String("webhook-token", "", "bearer token for the webhook")

	_ = viper.BindPFlag("addr", flags.Lookup("addr"))
	_ = viper.BindPFlag("db_host", flags.Lookup("db-host"))
	_ = viper.BindPFlag("db_port", flags.Lookup("db-port"))
	_ = viper.BindPFlag("db_user", flags.Lookup("db-user"))
	_ = viper.BindPFlag("db_password", flags.Lookup("db-password"))
	_ = viper.BindPFlag("db_name", flags.Lookup("db-name"))
	_ = viper.BindPFlag("db_sslmode", flags.Lookup("db-sslmode"))
	_ = viper.BindPFlag("webhook_url", flags.Lookup("webhook-url"))
	_ = viper.BindPFlag("webhook_token", flags.Lookup("webhook-token"))
}

func runServe(cmd *cobra.Command, args []string) error {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		JSON:  true,
	})

	headless, _ := cmd.Flags().GetBool("headless")
	navTimeout, _ := cmd.Flags().GetDuration("nav-timeout")
	staticFallback, _ := cmd.Flags().GetBool("static-fallback")

	browserCfg := browser.DefaultConfig()
	browserCfg.Headless = headless
	browserCfg.NavTimeout = navTimeout

	scraper := scrape.New(
		scrape.Config{
			Browser:        browserCfg,
			StaticFallback: staticFallback,
		},
		buildGeocoder(false),
		buildPricer(false, browserCfg.UserAgent),
	)

	var st server.ListingStore
	if host := viper.GetString("db_host"); host != "" {
		pg, err := store.New(store.Config{
			Host:     host,
			Port:     viper.GetInt("db_port"),
			User:     viper.GetString("db_user"),
			Password: viper.GetString("db_password"),
			Name:     viper.GetString("db_name"),
			SSLMode:  viper.GetString("db_sslmode"),
		})
		if err != nil {
			logger.Error("postgres connection failed", "error", err)
			return err
		}
		defer pg.Close()
		st = pg
		logger.Info("persistence enabled", "host", host)
	}

	var fwd server.Sender
	if url := viper.GetString("webhook_url"); url != "" {
		fwd = forward.New(url, viper.GetString("webhook_token"))
		logger.Info("forwarding enabled", "webhook", url)
	}

	api := server.New(scraper, jobs.NewTracker(), st, fwd)
	return api.ListenAndServe(viper.GetString("addr"))
}
