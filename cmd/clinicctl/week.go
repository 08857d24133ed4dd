package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/clinic-admin-api/internal/calendar"
)

type weekOptions struct {
	date   string
	file   string
	asJSON bool
}

func newWeekCmd() *cobra.Command {
	opts := &weekOptions{}
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Render the week layout for a JSON list of appointments",
		Long: `Reads a JSON array of {"id","date","start_time","end_time","type"} objects
and prints the Sunday-started week containing --date with each block's geometry.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWeek(cmd.InOrStdin(), cmd.OutOrStdout(), opts, time.Now())
		},
	}
	cmd.Flags().StringVar(&opts.date, "date", "", "reference date (yyyy-MM-dd), defaults to today")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "-", "appointments JSON file, - for stdin")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the render model as JSON")
	return cmd
}

func runWeek(stdin io.Reader, out io.Writer, opts *weekOptions, now time.Time) error {
	ref := now
	if opts.date != "" {
		d, err := calendar.ParseDate(opts.date)
		if err != nil {
			return err
		}
		ref = d.In(now.Location())
	}

	entries, err := readEntries(stdin, opts.file)
	if err != nil {
		return err
	}

	week := calendar.BuildWeek(ref, entries, calendar.DefaultLayout(), now)
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(week)
	}

	fmt.Fprintf(out, "Week %s .. %s\n", week.Window.StartDate(), week.Window.EndDate())
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DAY\tID\tSTART\tEND\tTYPE\tTOP\tHEIGHT")
	for _, day := range week.Days {
		if len(day.Entries) == 0 {
			fmt.Fprintf(tw, "%s %s\t-\t\t\t\t\t\n", day.Weekday.String()[:3], day.Key)
			continue
		}
		for _, p := range day.Entries {
			height := fmt.Sprintf("%.0f", p.Rect.HeightPx)
			if p.Rect.Degenerate {
				height += "!"
			}
			fmt.Fprintf(tw, "%s %s\t%s\t%s\t%s\t%s\t%.0f\t%s\n",
				day.Weekday.String()[:3], day.Key, p.ID, p.Start, p.End, p.Type, p.Rect.TopPx, height)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if week.Indicator.Visible {
		fmt.Fprintf(out, "now: day %d at %.0fpx\n", week.Indicator.DayIndex, week.Indicator.TopPx)
	}
	return nil
}

func readEntries(stdin io.Reader, file string) ([]calendar.Entry, error) {
	r := stdin
	if file != "" && file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var entries []calendar.Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode appointments: %w", err)
	}
	return entries, nil
}
