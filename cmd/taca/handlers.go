package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/BrunoVisnadi/taca-sociedades/internal/config"
	"github.com/BrunoVisnadi/taca-sociedades/internal/store"
	"github.com/BrunoVisnadi/taca-sociedades/pkg/server"
	"github.com/BrunoVisnadi/taca-sociedades/pkg/standings"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

// open loads the config and opens the store; callers must Close the store.
func open() (*config.Config, *store.SQLiteStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return cfg, db, nil
}

// editionYear picks the explicit flag over the configured default; 0 means
// the latest edition in the database.
func editionYear(flagYear int, cfg *config.Config) int {
	if flagYear > 0 {
		return flagYear
	}
	return cfg.Edition.Year
}

func runServe(port int) error {
	cfg, db, err := open()
	if err != nil {
		return err
	}
	defer db.Close()

	if port == 0 {
		port = cfg.Server.Port
	}

	engine := standings.NewEngine(db)
	srv := server.New(db, engine, cfg.Server.AuthTokens, cfg.Edition.Year, port)
	return srv.ListenAndServe()
}

func runStandings(edition int, jsonOutput bool) error {
	cfg, db, err := open()
	if err != nil {
		return err
	}
	defer db.Close()

	engine := standings.NewEngine(db)
	rows, err := engine.EditionStandings(context.Background(), editionYear(edition, cfg))
	if err != nil {
		return fmt.Errorf("compute standings: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Println("no societies registered (try seeding first: taca seed)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSOCIETY\tPTS\tSPK\t1STS\t2NDS\tDEBATES")
	for i, row := range rows {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%d\t%d\n",
			i+1, row.ShortName, row.Points, row.SpeakerPoints,
			row.Firsts, row.Seconds, row.Debates)
	}
	return w.Flush()
}

func runResults(edition int, jsonOutput bool) error {
	cfg, db, err := open()
	if err != nil {
		return err
	}
	defer db.Close()

	engine := standings.NewEngine(db)
	rounds, err := engine.EditionResults(context.Background(), editionYear(edition, cfg))
	if err != nil {
		return fmt.Errorf("load results: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rounds)
	}

	if len(rounds) == 0 {
		fmt.Println("no completed rounds yet")
		return nil
	}

	for _, round := range rounds {
		fmt.Printf("Round %d", round.Number)
		if round.Date != "" {
			fmt.Printf(" (%s)", round.Date)
		}
		if !round.Published {
			fmt.Print(" [scores not published]")
		}
		fmt.Println()

		for _, debate := range round.Debates {
			fmt.Printf("  Debate %d\n", debate.Number)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, team := range debate.Teams {
				total := "-"
				if team.Total != nil {
					total = fmt.Sprintf("%d", *team.Total)
				}
				fmt.Fprintf(w, "    %s\t%s\t#%d\t%s\n", team.Side, team.Team, team.Rank, total)
			}
			w.Flush()
		}
	}
	return nil
}

func runPairings(edition int, jsonOutput, next bool) error {
	cfg, db, err := open()
	if err != nil {
		return err
	}
	defer db.Close()

	engine := standings.NewEngine(db)
	year := editionYear(edition, cfg)

	var rounds []standings.RoundPairings
	if next {
		round, err := engine.NextPairings(context.Background(), year)
		if err != nil {
			return fmt.Errorf("load pairings: %w", err)
		}
		if round != nil {
			rounds = append(rounds, *round)
		}
	} else {
		rounds, err = engine.Pairings(context.Background(), year)
		if err != nil {
			return fmt.Errorf("load pairings: %w", err)
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rounds)
	}

	if len(rounds) == 0 {
		fmt.Println("no rounds waiting to be debated")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROUND\tDEBATE\tOG\tOO\tCG\tCO")
	for _, round := range rounds {
		for _, debate := range round.Debates {
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\n",
				round.Number, debate.Number, debate.OG, debate.OO, debate.CG, debate.CO)
		}
	}
	return w.Flush()
}

func runSeed(edition int, name, membersCSV, pairingsCSV string, placeholders []string) error {
	_, db, err := open()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	ed, err := db.EnsureEdition(ctx, edition, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "edition %d (%s)\n", ed.Year, ed.Name)

	if membersCSV != "" {
		n, err := db.ImportMembersCSV(ctx, ed.ID, membersCSV)
		if err != nil {
			return fmt.Errorf("import members: %w", err)
		}
		fmt.Fprintf(os.Stderr, "  imported %d members\n", n)
	}
	if pairingsCSV != "" {
		n, err := db.ImportPairingsCSV(ctx, ed.ID, pairingsCSV)
		if err != nil {
			return fmt.Errorf("import pairings: %w", err)
		}
		fmt.Fprintf(os.Stderr, "  imported %d pairings\n", n)
	}
	for _, society := range placeholders {
		if err := db.SetPlaceholder(ctx, ed.ID, society, true); err != nil {
			return fmt.Errorf("flag placeholder: %w", err)
		}
		fmt.Fprintf(os.Stderr, "  flagged %s as placeholder\n", society)
	}
	return nil
}

func runPublish(edition, round int, silent, published bool) error {
	cfg, db, err := open()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	year := editionYear(edition, cfg)

	var ed *store.Edition
	if year > 0 {
		ed, err = db.EditionByYear(ctx, year)
	} else {
		ed, err = db.CurrentEdition(ctx)
	}
	if err != nil {
		return err
	}

	if err := db.SetRoundFlags(ctx, ed.ID, round, silent, published); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "round %d: silent=%v scores_published=%v\n", round, silent, published)
	return nil
}
