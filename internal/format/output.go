package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/fatih/color"

	"restbench/internal/model"
)

// sanitizeOutput removes or escapes potentially dangerous control characters
// that could manipulate terminal display or execute commands
func sanitizeOutput(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			// Allow common whitespace characters
			result.WriteRune(r)
		case r == '\x1b':
			// Escape ANSI escape sequences - replace ESC with visible representation
			result.WriteString("\\x1b")
		case unicode.IsControl(r) && r < 0x20:
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		case r == 0x7F:
			result.WriteString("\\x7f")
		default:
			result.WriteRune(r)
		}
	}

	return result.String()
}

var (
	successColor   = color.New(color.FgGreen, color.Bold)
	redirectColor  = color.New(color.FgYellow, color.Bold)
	clientErrColor = color.New(color.FgRed, color.Bold)
	serverErrColor = color.New(color.FgRed, color.Bold, color.BgWhite)
	headerKeyColor = color.New(color.FgCyan)
	methodColor    = color.New(color.FgMagenta, color.Bold)
	urlColor       = color.New(color.FgBlue)
	dimColor       = color.New(color.Faint)
)

// PrintResponse prints a formatted response record
func PrintResponse(rec model.ResponseRecord, showHeaders bool) {
	statusColor := getStatusColor(rec.Status)
	statusColor.Printf("%d\n", rec.Status)

	if rec.Failed() {
		clientErrColor.Printf("  %s\n", sanitizeOutput(rec.Error))
		return
	}

	if showHeaders {
		printHeaders(rec.Headers)
	}

	printBody(rec.Data)
}

func getStatusColor(code int) *color.Color {
	switch {
	case code >= 200 && code < 300:
		return successColor
	case code >= 300 && code < 400:
		return redirectColor
	case code >= 400 && code < 500:
		return clientErrColor
	default:
		return serverErrColor
	}
}

func printHeaders(headers map[string]string) {
	if len(headers) == 0 {
		return
	}

	fmt.Println("Headers:")

	// Sort headers for consistent output
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		headerKeyColor.Printf("  %s: ", sanitizeOutput(key))
		fmt.Println(sanitizeOutput(headers[key]))
	}
	fmt.Println()
}

func printBody(data json.RawMessage) {
	if len(data) == 0 || string(data) == "null" {
		dimColor.Println("(empty body)")
		return
	}
	fmt.Println(sanitizeOutput(prettyJSON(string(data))))
}

func prettyJSON(s string) string {
	var out bytes.Buffer
	err := json.Indent(&out, []byte(s), "", "  ")
	if err != nil {
		// Not valid JSON, return as-is
		return s
	}
	return out.String()
}

// PrintHistoryList prints history entries in a compact format
func PrintHistoryList(entries []model.HistoryEntry, limit int) {
	if len(entries) == 0 {
		dimColor.Println("No requests in history")
		return
	}

	count := len(entries)
	if limit > 0 && limit < count {
		count = limit
	}

	for i := 0; i < count; i++ {
		entry := entries[i]
		dimColor.Printf("[%d] ", i+1)
		methodColor.Printf("%-7s ", entry.Method)

		url := entry.URL
		if len(url) > 60 {
			url = url[:57] + "..."
		}
		urlColor.Printf("%-60s ", sanitizeOutput(url))

		if entry.ResponseStatus != nil {
			statusColor := getStatusColor(*entry.ResponseStatus)
			statusColor.Printf("%d ", *entry.ResponseStatus)
		}
		dimColor.Printf("%s", entry.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Println()
	}

	if limit > 0 && len(entries) > limit {
		dimColor.Printf("\n... and %d more requests\n", len(entries)-limit)
	}
}

// PrintHistoryDetail prints a full history entry
func PrintHistoryDetail(entry model.HistoryEntry) {
	fmt.Println("Request:")
	fmt.Println(strings.Repeat("-", 40))
	methodColor.Printf("%s ", entry.Method)
	urlColor.Println(sanitizeOutput(entry.URL))
	dimColor.Printf("ID: %s\n", entry.ID)
	dimColor.Printf("Time: %s\n\n", entry.CreatedAt.Format("2006-01-02 15:04:05"))

	if len(entry.Headers) > 0 {
		printHeaders(entry.Headers)
	}

	if entry.Body != nil && *entry.Body != "" {
		fmt.Println("Body:")
		fmt.Println(sanitizeOutput(prettyJSON(*entry.Body)))
		fmt.Println()
	}

	if entry.ResponseStatus != nil {
		fmt.Println("\nResponse:")
		fmt.Println(strings.Repeat("-", 40))
		statusColor := getStatusColor(*entry.ResponseStatus)
		statusColor.Printf("%d\n", *entry.ResponseStatus)
		printBody(entry.ResponseData)
	}
}

// PrintCollectionList prints all collections, marking the expanded one
func PrintCollectionList(collections []model.Collection, activeID string) {
	if len(collections) == 0 {
		dimColor.Println("No collections found")
		return
	}

	fmt.Println("Collections:")
	for _, col := range collections {
		marker := " "
		if col.ID == activeID && activeID != "" {
			marker = "*"
		}
		dimColor.Printf("%s ", marker)
		headerKeyColor.Printf("%s ", sanitizeOutput(col.Name))
		dimColor.Printf("(%d requests)", len(col.Items))
		if col.Description != "" {
			dimColor.Printf(" - %s", sanitizeOutput(col.Description))
		}
		fmt.Println()
	}
}

// PrintCollectionItems prints the saved requests of one collection
func PrintCollectionItems(col model.Collection) {
	if len(col.Items) == 0 {
		dimColor.Printf("Collection '%s' is empty\n", sanitizeOutput(col.Name))
		return
	}

	headerKeyColor.Printf("Collection: %s\n", sanitizeOutput(col.Name))
	fmt.Println(strings.Repeat("-", 40))

	for i, item := range col.Items {
		dimColor.Printf("[%d] ", i+1)
		if item.Name != "" {
			fmt.Printf("%s: ", sanitizeOutput(item.Name))
		}
		methodColor.Printf("%s ", item.Method)
		urlColor.Println(sanitizeOutput(item.URL))
		dimColor.Printf("    id: %s\n", item.ID)
	}
}

// PrintSuccess prints a success message
func PrintSuccess(msg string) {
	successColor.Printf("✓ %s\n", msg)
}

// PrintError prints an error message
func PrintError(msg string) {
	clientErrColor.Printf("✗ %s\n", msg)
}
