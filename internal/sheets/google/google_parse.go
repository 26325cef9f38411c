package google

import (
	"fmt"
	"strings"

	"expenditure/internal/core"
	"expenditure/internal/logstore"
)

// buildValues lays records out as in the log file: a header row, then one
// row per record. Quantity is sent as a number, amounts as text so the
// sheet keeps exactly two decimals.
func buildValues(records []core.Record) [][]any {
	values := make([][]any, 0, len(records)+1)
	values = append(values, toAny(logstore.Columns))
	for _, r := range records {
		row := toAny(logstore.EncodeRow(r))
		row[qtyColumn] = r.Quantity
		values = append(values, row)
	}
	return values
}

// parseValues is the inverse of buildValues.
func parseValues(values [][]any) ([]core.Record, error) {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = toStrings(v)
	}
	return logstore.DecodeRows(rows)
}

var qtyColumn = indexOf(logstore.Columns, logstore.ColQty)

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}
