// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jcodagnone/cadastre/cadastre"
	"github.com/jcodagnone/cadastre/spatial"
	"github.com/spf13/cobra"
)

// we say that it isn't.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}

	return (info.Mode() & os.ModeCharDevice) != 0
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

// eachLine calls fn for every non blank line of stdin.
func eachLine(prompt string, fn func(line string)) error {
	input := os.Stdin
	if isTerminal(input) {
		fmt.Fprintln(os.Stderr, prompt)
	}

	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			fn(line)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	return nil
}

var debugNomParcelleCmd = &cobra.Command{
	Use:   "nom-parcelle",
	Short: "Extrait le nom court d'identifiants de parcelles",
	Long: `Lit un identifiant par ligne, et imprime en stdout l'identifiant suivi du
nom court affiché dans les résultats.

$ echo 141180000A_0012 | cadastre debug nom-parcelle
141180000A_0012	0012
	`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return eachLine("Saisir les identifiants, un par ligne…", func(id string) {
			fmt.Printf("%s\t%s\n", id, cadastre.NomParcelle(id))
		})
	},
}

var debugLambert93Cmd = &cobra.Command{
	Use:   "lambert93",
	Short: "Projette des coordonnées WGS84 en Lambert-93",
	Long: `Lit une paire "lon lat" par ligne, et imprime les coordonnées Lambert-93
(EPSG:2154) suivies du retour en WGS84.

$ echo 2.3522 48.8566 | cadastre debug lambert93
2.3522 48.8566	652469.023 6862035.259	2.352200000 48.856600000
	`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return eachLine("Saisir les coordonnées \"lon lat\", une paire par ligne…", func(line string) {
			fmt.Println(lambert93Line(line))
		})
	},
}

func lambert93Line(line string) string {
	p, err := parseLonLat(line)
	if err != nil {
		return fmt.Sprintf("%s\t%q", line, err)
	}

	xy, err := spatial.ToLambert93(p)
	if err != nil {
		return fmt.Sprintf("%s\t%q", line, err)
	}

	back, err := spatial.FromLambert93(xy)
	if err != nil {
		return fmt.Sprintf("%s\t%.3f %.3f\t%q", line, xy.X(), xy.Y(), err)
	}

	return fmt.Sprintf("%s\t%.3f %.3f\t%.9f %.9f", line, xy.X(), xy.Y(), back.Lng, back.Lat)
}

func parseLonLat(line string) (spatial.Point, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
	if len(fields) != 2 {
		return spatial.Point{}, fmt.Errorf("expected \"lon lat\", got %d fields", len(fields))
	}

	lon, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return spatial.Point{}, fmt.Errorf("parsing longitude: %w", err)
	}

	lat, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return spatial.Point{}, fmt.Errorf("parsing latitude: %w", err)
	}

	return spatial.Point{Lat: lat, Lng: lon}, nil
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugNomParcelleCmd)
	debugCmd.AddCommand(debugLambert93Cmd)
}
