package kg

import (
	"fmt"
	"strings"
)

// #region row-access

func rowGet(row map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := row[k]; v != "" {
			return v
		}
	}
	return ""
}

// rowParts renders the compact attribute list for one bindings row.
func rowParts(row map[string]string) []string {
	var parts []string
	add := func(v string) {
		if v != "" {
			parts = append(parts, v)
		}
	}
	add(rowGet(row, "label", "name", "place"))
	add(rowGet(row, "address"))
	if p := rowGet(row, "price", "averagePricePerPerson"); p != "" {
		add("€" + p)
	}
	if r := rowGet(row, "rating", "avgRating"); r != "" {
		add("rating " + r)
	}
	if c := rowGet(row, "cuisine"); c != "" {
		add("cuisine " + c)
	}
	return parts
}

// #endregion row-access

// #region list-verbalization

// Verbalize renders a list view of bindings rows, capped for display.
func Verbalize(rows []map[string]string, displayLimit int) string {
	if len(rows) == 0 {
		return "No results."
	}
	n := displayLimit
	if n <= 0 {
		n = DefaultLimit
	}
	if n > DisplayLimitCap {
		n = DisplayLimitCap
	}
	if n > len(rows) {
		n = len(rows)
	}

	var b strings.Builder
	b.WriteString("Results:")
	for _, row := range rows[:n] {
		parts := rowParts(row)
		if len(parts) == 0 {
			b.WriteString("\n• (row)")
			continue
		}
		b.WriteString("\n• " + strings.Join(parts, " — "))
	}
	return b.String()
}

// VerbalizeSingle renders one row for detail lookups when enrichment is not
// available.
func VerbalizeSingle(row map[string]string) string {
	label := rowGet(row, "label", "name", "place")
	if label == "" {
		label = "This place"
	}
	var bits []string
	if v := rowGet(row, "address"); v != "" {
		bits = append(bits, v)
	}
	if v := rowGet(row, "cuisine"); v != "" {
		bits = append(bits, "cuisine "+v)
	}
	if v := rowGet(row, "rating", "avgRating"); v != "" {
		bits = append(bits, "rating "+v)
	}
	if v := rowGet(row, "price", "averagePricePerPerson"); v != "" {
		bits = append(bits, fmt.Sprintf("~€%s per person", v))
	}
	if len(bits) == 0 {
		return label + ": Details are limited based on previous results."
	}
	return label + ": " + strings.Join(bits, " — ")
}

// #endregion list-verbalization
