package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/wonny/stockcast/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// JobMetadata holds batch execution metadata
type JobMetadata struct {
	JobType   string
	Tag       string
	Timestamp string
	Period    *Period // Optional
	Symbols   []string
}

// Period represents a date range
type Period struct {
	StartDate string
	EndDate   string
}

// PrintJobHeader prints a formatted job header
func PrintJobHeader(meta JobMetadata) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", meta.JobType)
	PrintSeparator()

	// Optional period
	if meta.Period != nil {
		fmt.Printf("  Period    : %s ~ %s\n", meta.Period.StartDate, meta.Period.EndDate)
	}

	if len(meta.Symbols) > 0 {
		fmt.Printf("  Symbols   : %d\n", len(meta.Symbols))
		PrintList(meta.Symbols)
	}

	PrintSeparator()
	fmt.Printf("[%s] Manual run triggered at %s\n", meta.Tag, meta.Timestamp)
}

// PrintBatchSummary prints a collection batch result
func PrintBatchSummary(s contracts.BatchSummary) {
	fmt.Println()
	PrintSeparator()
	PrintKeyValue("Stage", string(s.Stage), 14)
	PrintKeyValue("Succeeded", fmt.Sprintf("%d/%d", s.Succeeded, s.Total), 14)
	PrintKeyValue("Skipped", fmt.Sprintf("%d", s.Skipped), 14)
	PrintKeyValue("Failed", fmt.Sprintf("%d", s.Failed), 14)
	PrintKeyValue("Degraded", fmt.Sprintf("%d", len(s.Degraded)), 14)
	PrintKeyValue("Records saved", fmt.Sprintf("%d", s.RecordsSaved), 14)
	PrintKeyValue("Duration", s.Duration.Round(time.Millisecond).String(), 14)
	PrintSeparator()

	if len(s.Degraded) > 0 {
		PrintWarning("Stored with unfilled gaps (>= 5% missing business days)")
		PrintList(s.Degraded)
	}

	if len(s.Failures) == 0 {
		PrintSuccess(fmt.Sprintf("%s completed", s.Stage))
		return
	}

	symbols := make([]string, 0, len(s.Failures))
	for symbol := range s.Failures {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	items := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		items = append(items, fmt.Sprintf("%s: %s", symbol, s.Failures[symbol]))
	}
	PrintWarning(fmt.Sprintf("%s finished with %d failed/skipped symbols", s.Stage, len(items)))
	PrintList(items)
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	// Separator line
	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	for i := 0; i < totalWidth; i++ {
		fmt.Print("─")
	}
	fmt.Println()
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Printf("   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintJSON writes v as indented JSON to stdout
func PrintJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
