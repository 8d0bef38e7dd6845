// Package parser turns the registry's three page shapes (hierarchy listing,
// building listing, building profile) into typed records. Every sentinel
// token and numeric-cleanup rule lives in this file, so the mapping from
// raw cell text to "absent" is defined once and tested once.
package parser

import (
	"log/slog"
	"strconv"
	"strings"
)

// Sentinel tokens the registry renders instead of values.
const (
	tokenNoData      = "н.д."         // listing cells
	tokenNotFilled   = "Не заполнено" // listing company and profile values
	tokenNotAssigned = "Не присвоен"  // energy class
	tokenYes         = "Да"
	tokenNo          = "Нет"
)

// cleanNumber strips the spaces the registry inserts as thousands
// separators, non-breaking ones included.
func cleanNumber(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == ' ' {
			return -1
		}
		return r
	}, s)
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(cleanNumber(strings.TrimSpace(s)))
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(cleanNumber(strings.TrimSpace(s)), 64)
}

// intCell parses a listing table cell. The "no data" token means absent;
// unparseable text is reported and treated as absent rather than sinking
// the row.
func intCell(logger *slog.Logger, field, text string) *int {
	text = strings.TrimSpace(text)
	if text == "" || text == tokenNoData {
		return nil
	}
	v, err := parseInt(text)
	if err != nil {
		logger.Warn("unparseable numeric cell", "field", field, "value", text)
		return nil
	}
	return &v
}

// floatCell is intCell for fractional cells.
func floatCell(logger *slog.Logger, field, text string) *float64 {
	text = strings.TrimSpace(text)
	if text == "" || text == tokenNoData {
		return nil
	}
	v, err := parseFloat(text)
	if err != nil {
		logger.Warn("unparseable numeric cell", "field", field, "value", text)
		return nil
	}
	return &v
}

// intField reads a numeric profile value. A nil entry is a label that was
// present but "not filled".
func intField(logger *slog.Logger, data map[string]*string, label string) *int {
	value := data[label]
	if value == nil {
		return nil
	}
	v, err := parseInt(*value)
	if err != nil {
		logger.Warn("unparseable numeric field", "field", label, "value", *value)
		return nil
	}
	return &v
}

// floatField is intField for fractional values.
func floatField(logger *slog.Logger, data map[string]*string, label string) *float64 {
	value := data[label]
	if value == nil {
		return nil
	}
	v, err := parseFloat(*value)
	if err != nil {
		logger.Warn("unparseable numeric field", "field", label, "value", *value)
		return nil
	}
	return &v
}
