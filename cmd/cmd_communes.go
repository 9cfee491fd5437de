// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var communesOptions struct {
	Departement string
	Match       string
}

var communesCmd = &cobra.Command{
	Use:   "communes",
	Short: "Liste les communes d'un département",
	Long: `Liste les libellés "Nom (code)" des communes présentes dans l'extrait
cadastral du département, triés par nom.

$ cadastre communes --dept 14 --match caen
Caen (14118)
	`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		labels, err := newPipeline(true).Communes(cmd.Context(), communesOptions.Departement)
		if err != nil {
			return err
		}

		matches := labels.Match(communesOptions.Match)
		for _, l := range matches {
			fmt.Println(l)
		}

		log.Printf("%d/%d communes", len(matches), labels.Len())

		return nil
	},
}

func init() {
	rootCmd.AddCommand(communesCmd)
	communesCmd.Flags().StringVar(&communesOptions.Departement, "dept", "", "Code du département (14, 2A, 974…)")
	communesCmd.Flags().StringVar(&communesOptions.Match, "match", "", "Ne garde que les communes contenant ce texte (sans accents ni casse)")
	_ = communesCmd.MarkFlagRequired("dept")
}
