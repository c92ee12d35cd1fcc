package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stayscout/stayscout/internal/airbnb"
	"github.com/stayscout/stayscout/internal/browser"
	"github.com/stayscout/stayscout/internal/geocode"
	"github.com/stayscout/stayscout/internal/logger"
	"github.com/stayscout/stayscout/internal/output"
	"github.com/stayscout/stayscout/internal/scrape"
)

var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Extract one rental listing to stdout or a file",
	Long: `Extract scrapes a single listing URL and prints the normalized
record.

Examples:
  stayscout extract "https://www.vrbo.com/1234567"
  stayscout extract --format yaml "https://www.booking.com/hotel/us/example.html"
  stayscout extract --debug-dir ./debug "https://www.airbnb.com/rooms/987"`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	flags := extractCmd.Flags()

	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("format", "json", "output format: json, yaml")

	flags.Bool("headless", true, "run the browser headless")
	flags.String("chrome-path", "", "explicit Chrome binary (default: auto-discover)")
	flags.Duration("nav-timeout", 60*time.Second, "page navigation timeout")
	flags.String("debug-dir", "", "write rendered HTML and screenshot here")
	flags.Bool("static-fallback", false, "allow a plain-HTTP fetch when no Chrome binary is found")

	flags.Bool("no-geocode", false, "skip reverse geocoding of coordinates")
	flags.Bool("no-price-query", false, "skip the nightly-rate reconstruction query")
	flags.String("user-agent", "", "override the outbound user agent")

	_ = viper.BindPFlag("chrome_path", flags.Lookup("chrome-path"))
	_ = viper.BindPFlag("user_agent", flags.Lookup("user-agent"))
}

func runExtract(cmd *cobra.Command, args []string) error {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	targetURL := args[0]

	headless, _ := cmd.Flags().GetBool("headless")
	navTimeout, _ := cmd.Flags().GetDuration("nav-timeout")
	debugDir, _ := cmd.Flags().GetString("debug-dir")
	staticFallback, _ := cmd.Flags().GetBool("static-fallback")
	noGeocode, _ := cmd.Flags().GetBool("no-geocode")
	noPriceQuery, _ := cmd.Flags().GetBool("no-price-query")

	browserCfg := browser.DefaultConfig()
	browserCfg.Headless = headless
	browserCfg.NavTimeout = navTimeout
	browserCfg.DebugDir = debugDir
	browserCfg.ExecPath = viper.GetString("chrome_path")
	if ua := viper.GetString("user_agent"); ua != "" {
		browserCfg.UserAgent = ua
	}

	scraper := scrape.New(
		scrape.Config{
			Browser:        browserCfg,
			StaticFallback: staticFallback,
		},
		buildGeocoder(noGeocode),
		buildPricer(noPriceQuery, browserCfg.UserAgent),
	)

	result, err := scraper.ExtractListing(ctx, targetURL)
	if err != nil {
		logError("extraction failed: %v", err)
		return err
	}

	out := os.Stdout
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			logError("create output file: %v", err)
			return err
		}
		defer f.Close()
		out = f
	}

	formatStr, _ := cmd.Flags().GetString("format")
	writer, err := output.NewWriter(out, output.Format(formatStr))
	if err != nil {
		logError("%v", err)
		return err
	}
	if err := writer.Write(result); err != nil {
		return err
	}
	return writer.Flush()
}

func buildGeocoder(disabled bool) *geocode.Resolver {
	if disabled {
		return nil
	}
	return geocode.NewResolver(geocode.NewPacer(), geocodeUserAgent)
}

func buildPricer(disabled bool, userAgent string) *airbnb.PriceClient {
	if disabled {
		return nil
	}
	return airbnb.NewPriceClient(userAgent)
}

// geocodeUserAgent identifies us to the geocoding service, which
// requires a descriptive agent string.
const geocodeUserAgent = "stayscout/1.0 (rental listing geocoder)"
