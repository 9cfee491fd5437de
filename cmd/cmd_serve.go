// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"net"
	"strconv"

	"github.com/jcodagnone/cadastre/web"
	"github.com/spf13/cobra"
)

var serveOptions struct {
	Host string
	Port int
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose la recherche en HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Flags().Changed("host") {
			cfg.Server.Host = serveOptions.Host
		}

		if cmd.Flags().Changed("port") {
			cfg.Server.Port = serveOptions.Port
		}

		addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))

		return web.NewServer(newPipeline(false)).Run(addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveOptions.Host, "host", "localhost", "Adresse d'écoute")
	serveCmd.Flags().IntVar(&serveOptions.Port, "port", 8080, "Port d'écoute")
}
