package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/glebovdev/trackdeck/internal/api"
	"github.com/glebovdev/trackdeck/internal/audio"
	"github.com/glebovdev/trackdeck/internal/config"
	"github.com/glebovdev/trackdeck/internal/player"
	"github.com/glebovdev/trackdeck/internal/service"
	"github.com/glebovdev/trackdeck/internal/ui"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var errNotTerminal = errors.New("trackdeck needs an interactive terminal; use `trackdeck list` to print the catalog")

type rootOptions struct {
	debug     bool
	search    string
	autostart bool
}

func newRootCommand() *cobra.Command {
	var opts rootOptions

	rootCmd := &cobra.Command{
		Use:           config.AppName,
		Short:         config.AppTagline,
		Long:          config.AppDescription,
		Version:       config.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if logPath := setupLogging(opts.debug, cmd.ErrOrStderr()); logPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Debug log: %s\n", logPath)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(os.Stdout) {
				return errNotTerminal
			}
			return runPlayer(opts)
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} v{{.Version}}\n%s\n", config.AppDescription))
	rootCmd.SetUsageTemplate(rootCmd.UsageTemplate() + configFileNote())

	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	rootCmd.Flags().StringVarP(&opts.search, "search", "s", "", "Start with the track list filtered by this text")
	rootCmd.Flags().BoolVar(&opts.autostart, "autostart", false, "Start playing the selected track immediately")

	rootCmd.AddCommand(newListCommand())

	return rootCmd
}

func configFileNote() string {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return ""
	}
	if _, statErr := os.Stat(configPath); statErr == nil {
		return fmt.Sprintf("\nConfig file: %s\n", configPath)
	}
	return "\nConfig file will be created on first use.\n"
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func runPlayer(opts rootOptions) error {
	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
	}

	audioService := service.NewAudioService(api.NewClient(), cfg.CacheAudio)
	engine := player.New(cfg.Catalog(), audio.NewFactory(audioService))
	tui := ui.NewUI(engine, audioService, cfg, ui.Options{
		Query:     opts.search,
		Autostart: opts.autostart,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		if _, ok := <-sigChan; ok {
			log.Info().Msg("Received shutdown signal, cleaning up...")
			tui.Shutdown()
		}
	}()

	log.Info().Msg("Starting UI...")

	// Run UI in a goroutine so we can handle signals properly
	uiDone := make(chan error, 1)
	go func() {
		uiDone <- tui.Run()
	}()

	err = <-uiDone
	engine.Close()
	audioService.Wait()

	if err != nil {
		log.Error().Err(err).Msg("Error running UI")
		return fmt.Errorf("ui: %w", err)
	}

	log.Info().Msgf("%s stopped", config.AppName)
	return nil
}
