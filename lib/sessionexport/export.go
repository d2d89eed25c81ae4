// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

// Package sessionexport writes the readings a viewer sampled to CSV or
// JSON files.
//
// Both formats start with session metadata followed by one entry per
// reading. The CSV layout is a title row, key/value metadata rows, a
// blank row, a header row of field names, then the readings. Save
// writes through a temporary file and renames it into place so a
// partially written export is never visible under its final name.
package sessionexport

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aromasense/aromasense/lib/reading"
)

// Format selects the export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatCSV, FormatJSON:
		return Format(name), nil
	default:
		return "", fmt.Errorf("sessionexport: unknown format %q", name)
	}
}

// Title is the first row of a CSV export.
const Title = "AromaSense session export"

// Session is the data written by an export.
type Session struct {
	// Name labels the sample. Empty exports as "unnamed".
	Name       string
	ExportedAt time.Time
	Readings   []reading.SensorReading
}

func (session Session) name() string {
	if session.Name == "" {
		return "unnamed"
	}
	return session.Name
}

// WriteCSV writes session as CSV to writer.
func WriteCSV(writer io.Writer, session Session) error {
	csvWriter := csv.NewWriter(writer)
	rows := [][]string{
		{Title},
		{"sample_name", session.name()},
		{"exported_at", session.ExportedAt.UTC().Format(time.RFC3339Nano)},
		{"readings", strconv.Itoa(len(session.Readings))},
		{},
	}
	fieldNames := reading.FieldNames()
	rows = append(rows, append([]string{"timestamp"}, fieldNames[:]...))
	for _, sensorReading := range session.Readings {
		values := sensorReading.FieldValues()
		row := append([]string{sensorReading.Timestamp.UTC().Format(time.RFC3339Nano)}, values[:]...)
		rows = append(rows, row)
	}
	if err := csvWriter.WriteAll(rows); err != nil {
		return fmt.Errorf("sessionexport: writing csv: %w", err)
	}
	return nil
}

// jsonDocument is the JSON export layout.
type jsonDocument struct {
	Metadata jsonMetadata            `json:"metadata"`
	Readings []reading.SensorReading `json:"readings"`
}

type jsonMetadata struct {
	SampleName  string    `json:"sample_name"`
	ExportedAt  time.Time `json:"exported_at"`
	NumReadings int       `json:"num_readings"`
	Fields      []string  `json:"fields"`
}

// WriteJSON writes session as indented JSON to writer.
func WriteJSON(writer io.Writer, session Session) error {
	fieldNames := reading.FieldNames()
	document := jsonDocument{
		Metadata: jsonMetadata{
			SampleName:  session.name(),
			ExportedAt:  session.ExportedAt.UTC(),
			NumReadings: len(session.Readings),
			Fields:      fieldNames[:],
		},
		Readings: session.Readings,
	}
	if document.Readings == nil {
		document.Readings = []reading.SensorReading{}
	}
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(document); err != nil {
		return fmt.Errorf("sessionexport: writing json: %w", err)
	}
	return nil
}

// FileName returns the export file name for a session exported at
// exportedAt.
func FileName(exportedAt time.Time, format Format) string {
	return "aromasense-session-" + exportedAt.UTC().Format("20060102-150405") + "." + string(format)
}

// Save writes session into directory, creating the directory if
// needed, and returns the path of the new file.
func Save(directory string, format Format, session Session) (string, error) {
	var write func(io.Writer, Session) error
	switch format {
	case FormatCSV:
		write = WriteCSV
	case FormatJSON:
		write = WriteJSON
	default:
		return "", fmt.Errorf("sessionexport: unknown format %q", format)
	}

	if err := os.MkdirAll(directory, 0755); err != nil {
		return "", fmt.Errorf("sessionexport: creating %s: %w", directory, err)
	}
	path := filepath.Join(directory, FileName(session.ExportedAt, format))
	temporaryPath := path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return "", fmt.Errorf("sessionexport: creating temporary file: %w", err)
	}
	if err := write(file, session); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return "", err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return "", fmt.Errorf("sessionexport: syncing temporary file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return "", fmt.Errorf("sessionexport: closing temporary file: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return "", fmt.Errorf("sessionexport: renaming export into place: %w", err)
	}
	return path, nil
}
