// Package formatter provides markdown formatting utilities.
package formatter

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/bpollino/angelina-jail-activity-automation/pkg/metadata"
)

// FormatMarkdown aligns every pipe table in content. A metadata block, if present, is
// re-signed so the hash covers the aligned text.
func FormatMarkdown(content string) string {
	meta, cleanContent := metadata.Extract(content)

	lines := strings.Split(cleanContent, "\n")

	var formattedLines []string

	var tableBuffer []string

	for _, line := range lines {
		trimmedLine := strings.TrimSpace(line)

		// Simple heuristic: starts and ends with |
		if strings.HasPrefix(trimmedLine, "|") && strings.HasSuffix(trimmedLine, "|") {
			tableBuffer = append(tableBuffer, line)
			continue
		}

		if len(tableBuffer) > 0 {
			formattedLines = append(formattedLines, processTable(tableBuffer)...)
			tableBuffer = nil
		}

		formattedLines = append(formattedLines, line)
	}

	if len(tableBuffer) > 0 {
		formattedLines = append(formattedLines, processTable(tableBuffer)...)
	}

	formatted := strings.Join(formattedLines, "\n")
	if meta == nil {
		if strings.HasSuffix(content, "\n") {
			formatted += "\n"
		}

		return formatted
	}

	return metadata.Sign(formatted, *meta)
}

// Table renders headers and rows as an aligned markdown table. Pipes inside cells are
// escaped.
func Table(headers []string, rows [][]string) string {
	lines := make([]string, 0, len(rows)+2)
	lines = append(lines, tableRow(headers))

	sep := make([]string, len(headers))
	for i := range sep {
		sep[i] = "---"
	}

	lines = append(lines, tableRow(sep))

	for _, r := range rows {
		lines = append(lines, tableRow(r))
	}

	return strings.Join(processTable(lines), "\n")
}

func tableRow(cells []string) string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		c = strings.ReplaceAll(strings.TrimSpace(c), "\n", " ")
		escaped[i] = strings.ReplaceAll(c, "|", `\|`)
	}

	return "| " + strings.Join(escaped, " | ") + " |"
}

// splitCells splits a table row on unescaped pipes.
func splitCells(row string) []string {
	var (
		cells []string
		cur   strings.Builder
	)

	for i := 0; i < len(row); i++ {
		switch {
		case row[i] == '\\' && i+1 < len(row) && row[i+1] == '|':
			cur.WriteString(`\|`)
			i++
		case row[i] == '|':
			cells = append(cells, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(row[i])
		}
	}

	return append(cells, cur.String())
}

func processTable(rows []string) []string {
	// A single line has no header/separator pair to align against.
	if len(rows) < 2 {
		return rows
	}

	table := make([][]string, 0, len(rows))

	for _, row := range rows {
		parts := splitCells(strings.TrimSpace(row))

		if len(parts) > 0 && strings.TrimSpace(parts[0]) == "" {
			parts = parts[1:]
		}

		if len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
			parts = parts[:len(parts)-1]
		}

		cells := make([]string, 0, len(parts))
		for _, p := range parts {
			cells = append(cells, strings.TrimSpace(p))
		}

		table = append(table, cells)
	}

	colCount := 0
	for _, row := range table {
		colCount = max(colCount, len(row))
	}

	separatorRowIdx := -1

	isSep := len(table[1]) > 0
	for _, cell := range table[1] {
		if strings.Trim(cell, "-: ") != "" {
			isSep = false
			break
		}
	}

	if isSep {
		separatorRowIdx = 1
	}

	// Widths are display widths so emoji and wide runes line up.
	colWidths := make([]int, colCount)

	for rIdx, row := range table {
		if rIdx == separatorRowIdx {
			continue
		}

		for i, cell := range row {
			colWidths[i] = max(colWidths[i], runewidth.StringWidth(cell))
		}
	}

	for i := range colWidths {
		colWidths[i] = max(colWidths[i], 3)
	}

	result := make([]string, 0, len(table))

	for i, row := range table {
		var sb strings.Builder

		sb.WriteString("|")

		for j := range colCount {
			sb.WriteString(" ")

			content := ""
			if j < len(row) {
				content = row[j]
			}

			if i == separatorRowIdx {
				sb.WriteString(strings.Repeat("-", colWidths[j]))
			} else {
				sb.WriteString(runewidth.FillRight(content, colWidths[j]))
			}

			sb.WriteString(" |")
		}

		result = append(result, sb.String())
	}

	return result
}
