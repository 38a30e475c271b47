package notifier

import (
	"fmt"
	"html"
	"strings"

	"SignalSentinel/internal/model"
)

const timeLayout = "2006-01-02 15:04 UTC"

func kindIcon(k model.SignalKind) string {
	switch k {
	case model.KindBuy:
		return "🟢"
	case model.KindSell:
		return "🔴"
	default:
		return "⚪"
	}
}

func resultIcon(r model.Result) string {
	switch r {
	case model.ResultWin:
		return "✅"
	case model.ResultLoss:
		return "❌"
	case model.ResultInvalid:
		return "⚠️"
	default:
		return "⏳"
	}
}

// FormatSignal formats a freshly emitted signal.
func FormatSignal(watch string, rec model.SignalRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s %s</b> | %s\n\n", kindIcon(rec.Kind), rec.Kind, html.EscapeString(rec.Symbol), html.EscapeString(watch))
	fmt.Fprintf(&b, "Entry: %.5f\n", rec.EntryPrice)
	fmt.Fprintf(&b, "Interval: %dm\n", rec.IntervalMinutes)
	fmt.Fprintf(&b, "Time: %s\n", rec.EmittedAt.Format(timeLayout))
	fmt.Fprintf(&b, "Reason: %s\n", html.EscapeString(rec.Reason))
	fmt.Fprintf(&b, "ID: <code>%s</code>", rec.ID)
	return b.String()
}

// FormatVerification formats a settled signal.
func FormatVerification(rec model.SignalRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s</b> %s %s\n\n", resultIcon(rec.Result), rec.Result, rec.Kind, html.EscapeString(rec.Symbol))
	if rec.Result == model.ResultInvalid {
		fmt.Fprintf(&b, "Stored kind %q cannot be verified\n", string(rec.Kind))
	} else {
		fmt.Fprintf(&b, "Entry: %.5f → Exit: %.5f\n", rec.EntryPrice, rec.ExitPrice)
		fmt.Fprintf(&b, "PnL: %+.5f\n", rec.PnL)
	}
	fmt.Fprintf(&b, "Emitted: %s\n", rec.EmittedAt.Format(timeLayout))
	fmt.Fprintf(&b, "ID: <code>%s</code>", rec.ID)
	return b.String()
}

// FormatSignalList formats recent records one per line.
func FormatSignalList(recs []model.SignalRecord) string {
	if len(recs) == 0 {
		return "No signals recorded yet."
	}
	var b strings.Builder
	b.WriteString("📋 <b>Recent signals</b>\n\n")
	for _, r := range recs {
		fmt.Fprintf(&b, "%s %s %s @ %.5f %s", resultIcon(r.Result), r.Kind, html.EscapeString(r.Symbol),
			r.EntryPrice, r.EmittedAt.Format("01-02 15:04"))
		if r.Resolved() && r.Result != model.ResultInvalid {
			fmt.Fprintf(&b, " (%+.5f)", r.PnL)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatSummary reports the outcome of an evaluation run.
func FormatSummary(evaluated, emitted, failed int) string {
	return fmt.Sprintf("🔎 Evaluated %d watches: %d signals, %d failed", evaluated, emitted, failed)
}

// FormatHelp returns the command reference.
func FormatHelp() string {
	return "<b>Commands</b>\n" +
		"/signals - recent signals\n" +
		"/pending - signals awaiting verification\n" +
		"/evaluate [watch] - run strategies now\n" +
		"/verify [id] - verify the oldest pending signal or one by id\n" +
		"/help - this message"
}
