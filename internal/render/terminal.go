// Package render turns page views into terminal tables, CSV and PNG charts.
package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"live-dashboard/internal/service"
)

const clockLayout = "15:04:05"

// CryptoView prints the price table, any warning and the refresh stamp.
func CryptoView(w io.Writer, view service.CryptoView) error {
	if err := writeWarning(w, view.Warning); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	cols := view.Table.Columns()
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(cols, "\t")))
	for _, row := range view.Table.Rows() {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	return writeRefreshed(w, view.RefreshedAt)
}

// WeatherView prints the current metrics, the session history and the refresh stamp.
func WeatherView(w io.Writer, view service.WeatherView) error {
	if err := writeWarning(w, view.Warning); err != nil {
		return err
	}

	if !view.Found {
		fmt.Fprintln(w, "No weather data available yet.")
	} else {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "Temperature\t%.1f °C\n", view.Latest.Temperature)
		fmt.Fprintf(tw, "Wind speed\t%.1f m/s\n", view.Latest.WindSpeed)
		fmt.Fprintf(tw, "Observed at\t%s\n", view.Latest.Timestamp.UTC().Format(time.RFC3339))
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(view.History) > 0 {
		fmt.Fprintf(w, "\nSession history (%d readings)\n", len(view.History))
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME (UTC)\tTEMPERATURE\tWIND")
		for _, obs := range view.History {
			fmt.Fprintf(tw, "%s\t%.1f\t%.1f\n", obs.Timestamp.UTC().Format(time.RFC3339), obs.Temperature, obs.WindSpeed)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	return writeRefreshed(w, view.RefreshedAt)
}

func writeWarning(w io.Writer, warning string) error {
	if warning == "" {
		return nil
	}
	_, err := fmt.Fprintf(w, "WARNING: %s\n\n", warning)
	return err
}

func writeRefreshed(w io.Writer, at time.Time) error {
	_, err := fmt.Fprintf(w, "\nLast refreshed at: %s\n", at.Format(clockLayout))
	return err
}
