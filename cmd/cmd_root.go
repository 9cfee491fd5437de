// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/jcodagnone/cadastre/cadastre"
	"github.com/jcodagnone/cadastre/config"
	"github.com/jcodagnone/cadastre/utils/httputils"
	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

// flags shared by every command, applied over the config file when set
var rootOptions struct {
	ConfigPath          string
	Millesime           string
	EnableHTTPTrace     bool
	EnableHTTPBodyTrace bool
}

var cfg = config.Defaults()

var rootCmd = &cobra.Command{
	Use:   "cadastre",
	Short: "recherche de parcelles cadastrales par surface",
	Long: `
cadastre retrouve les parcelles d'une ou plusieurs communes dont la contenance
cadastrale est égale à une surface donnée, à partir des extraits Etalab du
plan cadastral, et fournit pour chacune des liens Géoportail, Google Maps et
Street View centrés sur la parcelle.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load(rootOptions.ConfigPath)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("millesime") {
			c.Dataset.Millesime = rootOptions.Millesime
		}

		if flags.Changed("trace-http") {
			c.HTTP.Trace = rootOptions.EnableHTTPTrace
		}

		if flags.Changed("trace-http-body") {
			c.HTTP.TraceBody = rootOptions.EnableHTTPBodyTrace
		}

		cfg = c

		return nil
	},
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func userAgent() string {
	if cfg.HTTP.UserAgent != "" {
		return cfg.HTTP.UserAgent
	}

	return fmt.Sprintf("cadastre/%s (+https://github.com/jcodagnone/cadastre)", Version)
}

func httpOptions(timeout time.Duration) httputils.Options {
	return httputils.Options{
		Timeout:             timeout,
		UserAgent:           userAgent(),
		EnableHTTPTrace:     cfg.HTTP.Trace,
		EnableHTTPBodyTrace: cfg.HTTP.TraceBody,
	}
}

// newPipeline wires the pipeline described by the loaded configuration.
func newPipeline(progress bool) *cadastre.Pipeline {
	loader := cadastre.NewLoader(
		httputils.NewClient(httpOptions(cfg.Dataset.Timeout.Duration)),
		cadastre.LoaderOptions{
			URLTemplate: cfg.Dataset.URLTemplate,
			Millesime:   cfg.Dataset.Millesime,
		},
		nil,
	)

	namer := cadastre.NewGeoAPINamer(
		httputils.NewClient(httpOptions(0)),
		cfg.Communes.URLTemplate,
		cfg.Communes.Timeout.Duration,
	)

	resolver := cadastre.NewResolver(namer, cadastre.ResolverOptions{
		Delay:    cfg.Communes.Delay.Duration,
		Progress: progress,
	}, nil)

	return cadastre.NewPipeline(loader, resolver, cadastre.PipelineOptions{
		H3Resolution: cfg.Export.H3Resolution,
	})
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&rootOptions.ConfigPath,
		"config",
		"cadastre.toml",
		"Fichier de configuration TOML (optionnel)",
	)
	rootCmd.PersistentFlags().StringVar(
		&rootOptions.Millesime,
		"millesime",
		"",
		"Millésime des extraits Etalab, par exemple 2025-04-01",
	)
	rootCmd.PersistentFlags().BoolVar(
		&rootOptions.EnableHTTPTrace,
		"trace-http",
		false,
		"Display HTTP requests-responses",
	)
	rootCmd.PersistentFlags().BoolVar(
		&rootOptions.EnableHTTPBodyTrace,
		"trace-http-body",
		false,
		"Display HTTP requests-responses bodies",
	)
}
