package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"LottoSentinel/internal/model"
)

// maxListed caps how many records of each kind a message lists.
const maxListed = 20

// FormatChanges renders a change set as a Telegram HTML message.
func FormatChanges[T model.Record](source string, cs model.ChangeSet[T]) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔔 <b>%s changed</b> | %s\n", html.EscapeString(source), time.Now().Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("added %d, updated %d, removed %d\n", len(cs.Added), len(cs.Updated), len(cs.Removed)))

	if len(cs.Added) > 0 {
		b.WriteString("\n<b>Added</b>\n")
		for i, r := range cs.Added {
			if i == maxListed {
				b.WriteString(fmt.Sprintf("  … and %d more\n", len(cs.Added)-maxListed))
				break
			}
			b.WriteString("  + " + html.EscapeString(r.Summary()) + "\n")
		}
	}
	if len(cs.Updated) > 0 {
		b.WriteString("\n<b>Updated</b>\n")
		for i, u := range cs.Updated {
			if i == maxListed {
				b.WriteString(fmt.Sprintf("  … and %d more\n", len(cs.Updated)-maxListed))
				break
			}
			b.WriteString(fmt.Sprintf("  ~ %s → %s\n", html.EscapeString(u.Old.Summary()), html.EscapeString(u.New.Summary())))
		}
	}
	if len(cs.Removed) > 0 {
		b.WriteString("\n<b>Removed</b>\n")
		for i, r := range cs.Removed {
			if i == maxListed {
				b.WriteString(fmt.Sprintf("  … and %d more\n", len(cs.Removed)-maxListed))
				break
			}
			b.WriteString("  - " + html.EscapeString(r.Summary()) + "\n")
		}
	}
	return b.String()
}

// FormatStatus renders the status of every source.
func FormatStatus(statuses []model.SourceStatus) string {
	var b strings.Builder
	b.WriteString("📦 <b>Source status</b>\n")
	for _, s := range statuses {
		b.WriteString(fmt.Sprintf("\n<b>%s</b> (%s)\n", html.EscapeString(s.Source), s.State))
		b.WriteString(fmt.Sprintf("records: %d\n", s.RecordCount))
		b.WriteString(fmt.Sprintf("cycles: %d | changes: %d | failures: %d\n", s.Cycles, s.Changes, s.Failures))
		if !s.LastCycleAt.IsZero() {
			b.WriteString(fmt.Sprintf("last cycle: %s\n", s.LastCycleAt.Format("2006-01-02 15:04")))
		}
		if !s.LastChange.IsZero() {
			b.WriteString(fmt.Sprintf("last change: %s\n", s.LastChange.Format("2006-01-02 15:04")))
		}
		if !s.NextCycleAt.IsZero() {
			b.WriteString(fmt.Sprintf("next cycle: %s\n", s.NextCycleAt.Format("2006-01-02 15:04")))
		}
		if s.LastError != "" {
			b.WriteString("last error: " + html.EscapeString(s.LastError) + "\n")
		}
	}
	return b.String()
}

// FormatDigest renders the daily digest.
func FormatDigest(statuses []model.SourceStatus) string {
	return fmt.Sprintf("📅 <b>Daily digest</b> | %s\n\n", time.Now().Format("2006-01-02")) + FormatStatus(statuses)
}
