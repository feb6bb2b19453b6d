// blockmetrics - benchmark log comparison server for reth sync runs.
// Point it at one dual-run log file (or two single-run files) and it serves
// a web UI comparing per-block processing, elapsed and state-root times.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/colorfulnotion/blockmetrics/analysis"
	"github.com/colorfulnotion/blockmetrics/config"
	log "github.com/colorfulnotion/blockmetrics/log"
	"github.com/colorfulnotion/blockmetrics/web"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "blockmetrics",
		Short: "Reth benchmark log comparison",
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	var (
		configPath string
		port       int
		logLevel   string
		debug      string
	)

	var serveCmd = &cobra.Command{
		Use:   "serve <logfile> [logfile2]",
		Short: "Analyze one or two benchmark logs and serve the comparison UI",
		Args:  cobra.RangeArgs(1, 2),
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Load(configPath)
			if err != nil {
				fmt.Printf("Failed to load config %s: %v\n", configPath, err)
				os.Exit(1)
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}

			log.InitLogger(cfg.LogLevel)
			log.EnableModules(debug)

			analyzer, err := analysis.New(cfg, args...)
			if err != nil {
				fmt.Printf("Failed to open log files: %v\n", err)
				os.Exit(1)
			}

			// Full scan up front so bad input fails here, not on the first
			// page load.
			if _, err := analyzer.Result(); err != nil {
				fmt.Printf("Failed to analyze logs: %v\n", err)
				os.Exit(1)
			}

			server := web.NewServer(cfg, analyzer)
			if err := server.ListenAndServe(); err != nil {
				fmt.Printf("Server failed: %v\n", err)
				os.Exit(1)
			}
		},
	}
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	serveCmd.Flags().IntVar(&port, "port", 8000, "HTTP listen port")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error, crit)")
	serveCmd.Flags().StringVar(&debug, "debug", "", "Debug modules to enable (comma separated, or 'all')")

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("blockmetrics %s (commit %s, built %s)\n", Version, Commit, BuildTime)
		},
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
