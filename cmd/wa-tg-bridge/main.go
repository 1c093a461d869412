package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vhalmd/wa-tg-bridge/internal/bridge"
	"github.com/vhalmd/wa-tg-bridge/internal/config"
	"github.com/vhalmd/wa-tg-bridge/internal/logging"
	"github.com/vhalmd/wa-tg-bridge/internal/metrics"
	"github.com/vhalmd/wa-tg-bridge/internal/telegram"
	"github.com/vhalmd/wa-tg-bridge/internal/whatsapp"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "wa-tg-bridge",
		Short:         "Relay messages between your WhatsApp account and Telegram friends",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	root.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			return printConfig(cmd.OutOrStdout(), cfg)
		},
	})
	return root
}

func run(ctx context.Context, cfg config.Config) error {
	log := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	wa, err := whatsapp.NewClient(whatsapp.Config{
		StoreDSN:    cfg.WhatsAppStore,
		DeviceName:  cfg.WhatsAppDeviceName,
		OwnerNumber: cfg.WhatsAppOwner,
		OpenAIKey:   cfg.OpenAIKey,
	}, log.Sub("WhatsApp"))
	if err != nil {
		return err
	}

	tg, err := telegram.NewBot(telegram.Config{
		Token:     cfg.TelegramToken,
		Owner:     cfg.TelegramOwner,
		Registry:  cfg.Registry,
		RateLimit: cfg.TelegramRateLimit,
	}, log.Sub("Telegram"))
	if err != nil {
		return err
	}

	recorder := metrics.NewRecorder()
	b := bridge.New(bridge.Options{
		Registry:     cfg.Registry,
		Prefix:       cfg.Prefix,
		OwnerAddress: cfg.WhatsAppOwner,
		SendTimeout:  cfg.SendTimeout,
		Telegram:     tg,
		Owner:        wa,
		Observer:     recorder,
		Logger:       log.Sub("Bridge"),
	})
	wa.OnOwnerMessage = b.HandleOwnerMessage
	tg.OnContactMessage = b.HandleContactMessage

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, metrics.Handler(recorder, wa)); err != nil {
				log.Errorf("Metrics server stopped: %s", err)
			}
		}()
	}

	wa.Whatsapp.EnableAutoReconnect = true
	wa.Whatsapp.AddEventHandler(wa.EventHandler)
	if err := wa.Connect(ctx, os.Stdout); err != nil {
		return err
	}
	defer wa.Disconnect()

	go tg.Start(ctx)

	log.Infof("Bridge running: prefix=%q friends=%d", cfg.Prefix, len(cfg.Registry.IDs()))
	<-ctx.Done()
	return nil
}

type friendView struct {
	ID  bridge.ID `yaml:"id"`
	Tag string    `yaml:"tag,omitempty"`
}

type configReport struct {
	config.Config `yaml:",inline"`
	Friends       []friendView `yaml:"friends"`
	OpenAI        bool         `yaml:"voice_transcription"`
}

func printConfig(w io.Writer, cfg config.Config) error {
	report := configReport{Config: cfg, OpenAI: cfg.OpenAIKey != ""}
	for _, id := range cfg.Registry.IDs() {
		tag, _ := cfg.Registry.TagOf(id)
		report.Friends = append(report.Friends, friendView{ID: id, Tag: tag})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}
