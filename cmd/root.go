package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/straying-cloud/sitemirror/internal/config"
	"github.com/straying-cloud/sitemirror/internal/crawler"
	"github.com/straying-cloud/sitemirror/internal/logging"
)

var rootURL string

// rootCmd mirrors one site, starting from rootURL, into "<host>-site" in the
// current directory.
var rootCmd = &cobra.Command{
	Use:   "sitemirror",
	Short: "Mirror a website's HTML and assets to disk",
	Long: `sitemirror crawls a site starting from a root URL, saving every in-scope
page and asset under "<host>-site", and rewrites links in saved HTML/CSS so
the mirror is browsable offline.`,
	Example: `  # Mirror the default site
  sitemirror

  # Mirror a specific site
  sitemirror -u https://example.com/`,
	RunE: runCrawl,
}

// Execute runs the root command; it's called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&rootURL, "url", "u", config.DefaultRootURL, "Root URL to mirror")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := config.New(rootURL)
	if err != nil {
		return fmt.Errorf("invalid root URL %q: %w", rootURL, err)
	}

	logger, closeLog, err := logging.New()
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer closeLog()

	logger.WithField("url", cfg.RootURL).Info("mirroring site")
	crawler.NewManager(cfg, logger).Run()
	return nil
}
