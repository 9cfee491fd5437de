// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jcodagnone/cadastre/cadastre"
	"github.com/spf13/cobra"
)

var searchOptions struct {
	Departement string
	Communes    []string
	Surface     float64
	CSVPath     string
	GeoJSONPath string
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Recherche les parcelles d'une surface donnée",
	Long: `Recherche, dans les communes choisies, les parcelles dont la contenance est
exactement la surface demandée.

$ cadastre search --dept 14 --commune 14118 --surface 469
$ cadastre search --dept 14 --commune "Caen (14118)" --surface 469 --csv -
	`,
	Args: cobra.NoArgs,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return checkExports(searchOptions.CSVPath, searchOptions.GeoJSONPath)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		res, err := newPipeline(true).Search(cmd.Context(), cadastre.Query{
			Departement: searchOptions.Departement,
			Communes:    searchOptions.Communes,
			Surface:     searchOptions.Surface,
		})
		if err != nil {
			return err
		}

		for _, w := range res.Warnings {
			fmt.Fprintln(os.Stderr, "⚠️", w)
		}

		toStdout := searchOptions.CSVPath == "-" || searchOptions.GeoJSONPath == "-"

		if err := writeExport(searchOptions.CSVPath, res.Rows, cadastre.WriteCSV); err != nil {
			return fmt.Errorf("writing CSV: %w", err)
		}

		if err := writeExport(searchOptions.GeoJSONPath, res.Rows, cadastre.WriteGeoJSON); err != nil {
			return fmt.Errorf("writing GeoJSON: %w", err)
		}

		if toStdout {
			return nil
		}

		if len(res.Rows) == 0 {
			fmt.Println("Aucune parcelle trouvée avec ces critères.")

			return nil
		}

		fmt.Printf("%d parcelle(s) trouvée(s)\n", len(res.Rows))

		return cadastre.WriteTable(os.Stdout, res.Rows)
	},
}

// checkExports rejects writing both exports to stdout.
func checkExports(csvPath, geoJSONPath string) error {
	if csvPath == "-" && geoJSONPath == "-" {
		return errors.New("--csv and --geojson cannot both write to stdout")
	}

	return nil
}

// writeExport writes rows to path, "-" meaning stdout. An empty path is a
// no-op.
func writeExport(path string, rows []cadastre.Row, write func(io.Writer, []cadastre.Row) error) error {
	switch path {
	case "":
		return nil
	case "-":
		return write(os.Stdout, rows)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := write(f, rows); err != nil {
		_ = f.Close()

		return err
	}

	return f.Close()
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchOptions.Departement, "dept", "", "Code du département (14, 2A, 974…)")
	searchCmd.Flags().StringArrayVar(&searchOptions.Communes, "commune", nil, "Code INSEE ou libellé \"Nom (code)\" d'une commune, répétable")
	searchCmd.Flags().Float64Var(&searchOptions.Surface, "surface", 0, "Surface recherchée en m²")
	searchCmd.Flags().StringVar(&searchOptions.CSVPath, "csv", "", "Exporte les résultats en CSV dans ce fichier (- pour stdout)")
	searchCmd.Flags().StringVar(&searchOptions.GeoJSONPath, "geojson", "", "Exporte les centres en GeoJSON dans ce fichier (- pour stdout)")
	_ = searchCmd.MarkFlagRequired("dept")
}
