package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/nvi-inc/masters/config"
	"github.com/nvi-inc/masters/sheet"
)

// Fixed column layout of the master workbook template.
const (
	colName     = 0  // A
	colCode     = 1  // B
	colDate     = 2  // C
	colTime     = 4  // E
	colDur      = 5  // F
	colStations = 6  // G..AJ, thirty station slots
	numStations = 30
	colSked     = 36 // AK
	colCorr     = 37 // AL
	colStatus   = 38 // AM
	colPF       = 40 // AO
	colDBC      = 41 // AP
	numCols     = 42
)

var workbookHeader = func() []sheet.Cell {
	row := make([]sheet.Cell, numCols)
	row[colName] = sheet.TextCell("NAME")
	row[colCode] = sheet.TextCell("CODE")
	row[colDate] = sheet.TextCell("DATE")
	row[3] = sheet.TextCell("DOY")
	row[colTime] = sheet.TextCell("TIME")
	row[colDur] = sheet.TextCell("DUR")
	for i := 0; i < numStations; i++ {
		row[colStations+i] = sheet.TextCell(fmt.Sprintf("Stat%d", i+1))
	}
	row[colSked] = sheet.TextCell("SKED")
	row[colCorr] = sheet.TextCell("CORR")
	row[colStatus] = sheet.TextCell("STATUS")
	row[colPF] = sheet.TextCell("PF")
	row[colDBC] = sheet.TextCell("DBC")
	return row
}()

// rebuild reads a rendered schedule text file back into a workbook, so
// a hand-edited text file can seed the next editing round.
func rebuild(ctx *cli.Context) error {
	year, err := yearArg(ctx)
	if err != nil {
		return err
	}
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return err
	}
	txtPath := filepath.Join(cfg.Folder, cfg.FileName("master", "txt", year))
	f, err := os.Open(txtPath)
	if err != nil {
		return err
	}
	defer f.Close()
	fmt.Println("Reading", txtPath)

	rows := [][]sheet.Cell{workbookHeader}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "|") {
			continue
		}
		row, err := rebuildRow(line)
		if err != nil {
			return fmt.Errorf("%s: %w", txtPath, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	xlsxPath := filepath.Join(cfg.Folder, cfg.FileName("master", "xlsx", year))
	if err := sheet.WriteXLSX(xlsxPath, fmt.Sprintf("%d MS", year), rows); err != nil {
		return err
	}
	fmt.Println("Created", xlsxPath)
	return nil
}

// rebuildRow expands one pipe-delimited session line into workbook
// cells, re-spreading the grouped station text over the per-station
// columns: scheduled stations fill forward as "XX1G-" chains, removed
// stations fill backward from the last slot.
func rebuildRow(line string) ([]sheet.Cell, error) {
	fields := strings.Split(line, "|")[1:]
	if len(fields) < 12 {
		return nil, fmt.Errorf("short session line %q", line)
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	row := make([]sheet.Cell, numCols)
	row[colName] = sheet.TextCell(fields[0])
	row[colCode] = sheet.TextCell(strings.ToUpper(fields[2]))
	date, err := time.Parse("20060102", fields[1])
	if err != nil {
		return nil, fmt.Errorf("invalid DATE %q: %w", fields[1], err)
	}
	row[colDate] = sheet.DateCell(date)
	clock, err := time.Parse("15:04", fields[4])
	if err != nil {
		return nil, fmt.Errorf("invalid TIME %q: %w", fields[4], err)
	}
	row[colTime] = sheet.ClockCell(clock)
	row[colDur] = sheet.NumberCell(parseDuration(fields[5]))
	row[colSked] = sheet.TextCell(fields[7])
	row[colCorr] = sheet.TextCell(fields[8])
	row[colStatus] = sheet.TextCell(fields[9])
	row[colPF] = sheet.TextCell(fields[10])
	row[colDBC] = sheet.TextCell(fields[11])

	scheduled, removed, _ := strings.Cut(fields[6], " -")
	for i, sta := range pairs(scheduled) {
		token := sta + "1G-"
		if i == len(pairs(scheduled))-1 {
			token = sta + "1G"
		}
		row[colStations+i] = sheet.TextCell(token)
	}
	for i, sta := range pairs(removed) {
		token := sta + "1G"
		if i > 0 {
			token += "-"
		}
		row[colStations+numStations-1-i] = sheet.TextCell(token)
	}
	return row, nil
}

// parseDuration converts a rendered "H:MM" duration back to fractional
// hours.
func parseDuration(s string) float64 {
	h, m, _ := strings.Cut(s, ":")
	hours, _ := strconv.ParseFloat(strings.TrimSpace(h), 64)
	minutes, _ := strconv.ParseFloat(strings.TrimSpace(m), 64)
	return hours + minutes/60
}

// pairs splits s into its two-character chunks.
func pairs(s string) []string {
	s = strings.TrimSpace(s)
	var out []string
	for i := 0; i+2 <= len(s); i += 2 {
		out = append(out, s[i:i+2])
	}
	return out
}
