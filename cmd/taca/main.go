package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "taca",
		Short: "Track standings and results of a BP debate tournament",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(serveCmd())
	root.AddCommand(standingsCmd())
	root.AddCommand(resultsCmd())
	root.AddCommand(pairingsCmd())
	root.AddCommand(seedCmd())
	root.AddCommand(publishCmd())

	return root
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func standingsCmd() *cobra.Command {
	var (
		edition    int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "standings",
		Short: "Show the society standings table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStandings(edition, jsonOutput)
		},
	}

	cmd.Flags().IntVar(&edition, "edition", 0, "edition year (default: current)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func resultsCmd() *cobra.Command {
	var (
		edition    int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "results",
		Short: "Show per-round debate results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResults(edition, jsonOutput)
		},
	}

	cmd.Flags().IntVar(&edition, "edition", 0, "edition year (default: current)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func pairingsCmd() *cobra.Command {
	var (
		edition    int
		jsonOutput bool
		next       bool
	)

	cmd := &cobra.Command{
		Use:   "pairings",
		Short: "Show matchups of rounds without results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPairings(edition, jsonOutput, next)
		},
	}

	cmd.Flags().IntVar(&edition, "edition", 0, "edition year (default: current)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().BoolVar(&next, "next", false, "only the next round without a recorded score")
	return cmd
}

func seedCmd() *cobra.Command {
	var (
		edition      int
		name         string
		membersCSV   string
		pairingsCSV  string
		placeholders []string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create an edition and import rosters and pairings from CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(edition, name, membersCSV, pairingsCSV, placeholders)
		},
	}

	cmd.Flags().IntVar(&edition, "edition", 0, "edition year (required)")
	cmd.Flags().StringVar(&name, "name", "", "edition name")
	cmd.Flags().StringVar(&membersCSV, "members", "", "members roster CSV")
	cmd.Flags().StringVar(&pairingsCSV, "pairings", "", "round pairings CSV")
	cmd.Flags().StringSliceVar(&placeholders, "placeholder", nil, "societies to flag as non-competing placeholders")
	cmd.MarkFlagRequired("edition")
	return cmd
}

func publishCmd() *cobra.Command {
	var (
		edition   int
		round     int
		silent    bool
		published bool
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Set a round's silent and scores-published flags",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(edition, round, silent, published)
		},
	}

	cmd.Flags().IntVar(&edition, "edition", 0, "edition year (default: current)")
	cmd.Flags().IntVar(&round, "round", 0, "round number (required)")
	cmd.Flags().BoolVar(&silent, "silent", false, "exclude the round from public standings")
	cmd.Flags().BoolVar(&published, "published", true, "publish the round's speaker scores")
	cmd.MarkFlagRequired("round")
	return cmd
}
