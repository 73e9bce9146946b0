// Package export writes solved schedules as JSON or CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kilianp07/evsched/core/report"
)

// WriteJSON writes the schedule entries to w in JSON format.
func WriteJSON(w io.Writer, entries []report.Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if entries == nil {
		entries = []report.Entry{}
	}
	return enc.Encode(entries)
}

// WriteCSV writes the schedule entries to w in CSV format with a header row.
func WriteCSV(w io.Writer, entries []report.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"vehicle_id", "charger_id", "interval", "start_hour", "power_kw"}); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{
			strconv.Itoa(e.VehicleID),
			strconv.Itoa(e.ChargerID),
			strconv.Itoa(e.Interval),
			strconv.FormatFloat(e.StartHour, 'f', -1, 64),
			strconv.FormatFloat(e.PowerKW, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes entries to path, picking the format from its extension.
func WriteFile(path string, entries []report.Entry) (err error) {
	var write func(io.Writer, []report.Entry) error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		write = WriteJSON
	case ".csv":
		write = WriteCSV
	default:
		return fmt.Errorf("unsupported export format: %q", ext)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f, entries)
}
