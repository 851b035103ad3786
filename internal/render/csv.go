package render

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"live-dashboard/internal/models"
)

// WeatherCSV writes the session history as time,temperature,wind rows.
func WeatherCSV(w io.Writer, history []models.WeatherObservation) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"time", "temperature", "wind"}); err != nil {
		return err
	}
	for _, obs := range history {
		record := []string{
			obs.Timestamp.UTC().Format(time.RFC3339),
			strconv.FormatFloat(obs.Temperature, 'f', -1, 64),
			strconv.FormatFloat(obs.WindSpeed, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
