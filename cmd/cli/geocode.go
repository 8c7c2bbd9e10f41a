package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/wadjakorntonsri/triptree/pkg/geocode"
)

func doGeocode(ctx context.Context, s geocode.Searcher, args []string, w io.Writer) error {
	q := strings.Join(args, " ")
	if len([]rune(q)) < geocode.MinQueryLength {
		return fmt.Errorf("query must have at least %d characters", geocode.MinQueryLength)
	}

	results, err := s.Search(ctx, q)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(w, "No matches")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LAT\tLNG\tNAME")
	for _, r := range results {
		fmt.Fprintf(tw, "%.5f\t%.5f\t%s\n", r.Lat, r.Lng, r.DisplayName)
	}
	return tw.Flush()
}
