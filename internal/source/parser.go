// Package source parses whitespace-delimited customer transaction tables.
package source

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"clvcast/internal/model"
)

// ParseFile reads a transaction table: an optional header line naming the
// columns, then one "customerID year" pair per line. Each row means the
// customer transacted at least once in that year.
//
// Malformed rows are a terminal error. The models downstream assume the
// indicator matrix is exact, so a bad row invalidates the whole run rather
// than being skipped.
func ParseFile(path string) ([]model.PurchaseEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var events []model.PurchaseEvent
	scanner := bufio.NewScanner(f)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%s:%d: expected 2 columns, got %d", path, lineNo, len(fields))
		}

		// Header line: second column is not a number.
		if lineNo == 1 {
			if _, err := strconv.Atoi(fields[1]); err != nil {
				continue
			}
		}

		year, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad year %q: %w", path, lineNo, fields[1], err)
		}
		if fields[0] == "" {
			return nil, fmt.Errorf("%s:%d: empty customer id", path, lineNo)
		}

		events = append(events, model.PurchaseEvent{
			CustomerID: fields[0],
			Year:       year,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return events, nil
}
