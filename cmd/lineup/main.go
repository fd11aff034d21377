// Command lineup loads the CSV exports and prints the best lineup for one
// country at a given score.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"

	"rugby-coach/internal/dataset"
	"rugby-coach/internal/optimizer"
	"rugby-coach/internal/shared"
)

func main() {
	var (
		dataDir   = flag.String("data", "Data", "directory holding player_data.csv and stint_data.csv")
		country   = flag.String("country", "", "country to pick the lineup for (default: first country)")
		home      = flag.Int("home", 0, "home score")
		away      = flag.Int("away", 0, "away score")
		preselect = flag.String("preselect", "", "comma separated player ids that must play")
		bench     = flag.String("unavailable", "", "comma separated player ids that cannot play")
		limit     = flag.Float64("cap", optimizer.DefaultDisabilityCap, "disability score cap")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	log := logrus.NewEntry(logger)

	data, err := dataset.Load(*dataDir)
	if err != nil {
		log.WithError(err).Fatal("Cannot load data")
	}
	if *country == "" {
		countries := data.Players.Countries()
		if len(countries) == 0 {
			log.Fatal("No players in data")
		}
		*country = countries[0]
	}
	team := data.Players.ByCountry(*country)
	if len(team) == 0 {
		log.WithField("country", *country).Fatal("Unknown country")
	}

	availability := make(map[string]bool)
	for _, id := range splitIDs(*bench) {
		availability[id] = false
	}

	res, err := optimizer.New(log).Optimize(context.Background(), optimizer.Request{
		Team:          team,
		Availability:  availability,
		HomeScore:     float64(*home),
		AwayScore:     float64(*away),
		Preselected:   splitIDs(*preselect),
		DisabilityCap: *limit,
	})
	if err != nil {
		log.WithError(err).Fatal("Optimization failed")
	}

	fmt.Printf("%s  %d-%d  status=%s  alpha=%g\n", *country, *home, *away, res.Status, res.Alpha)
	if !res.Feasible() {
		os.Exit(1)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PLAYER\tCLASS\tVALUE\tENERGY\tADJUSTED\tPRESELECTED")
	for _, b := range res.Breakdown {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.0f\t%.2f\t%v\n", b.PlayerID, shared.Rating(b.Rating).Class(),
			b.ValueScore, shared.MultiplierToLevel(b.Multiplier), b.AdjustedScore, b.Preselected)
	}
	w.Flush()
	fmt.Printf("objective=%.2f  disability=%.1f/%.1f\n", res.Objective, res.DisabilitySum, optimizer.EffectiveCap(*limit))
}

func splitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
