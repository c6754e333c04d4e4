package notifier

import (
	"fmt"
	"math"
	"strings"

	"RSRadar/internal/model"
)

// fmtVal renders a metric value, showing a dash for undefined ones.
func fmtVal(v float64, format string) string {
	if math.IsNaN(v) {
		return "–"
	}
	return fmt.Sprintf(format, v)
}

func biasArrow(bias int) string {
	switch {
	case bias > 0:
		return "▲"
	case bias < 0:
		return "▼"
	default:
		return "•"
	}
}

// FormatScanReport formats a ranked universe into a Telegram message.
func FormatScanReport(ranked *model.RankedUniverse, topN int) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>RS Radar</b> | %s (model %s)\n",
		ranked.Timestamp.Format("2006-01-02 15:04"), ranked.ModelVersion))
	b.WriteString(fmt.Sprintf("Universe: %d symbols, timeframes: %s\n\n",
		len(ranked.Rows), joinTimeframes(ranked.Timeframes)))

	limit := topN
	if limit <= 0 || limit > len(ranked.Rows) {
		limit = len(ranked.Rows)
	}
	b.WriteString("<b>Leaders:</b>\n")
	for i := 0; i < limit; i++ {
		row := ranked.Rows[i]
		if row.Skipped {
			break
		}
		mark := ""
		if row.Aligned {
			mark = " ✓"
		}
		b.WriteString(fmt.Sprintf("%2d. <b>%s</b> %s %s%s\n",
			i+1, row.Symbol, fmtVal(row.Composite, "%+.3f"), timeframeLine(&row), mark))
	}

	if len(ranked.Sectors) > 0 {
		b.WriteString("\n<b>Sectors:</b>\n")
		for _, s := range ranked.Sectors {
			b.WriteString(fmt.Sprintf("  %s %s (%d)\n",
				s.Sector, fmtVal(s.Score, "%+.3f"), s.Members))
		}
	}

	if len(ranked.Weak) > 0 {
		b.WriteString("\n<b>Laggards:</b> " + strings.Join(symbolNames(ranked.Weak), ", ") + "\n")
	}

	skipped := skippedSymbols(ranked.Rows)
	if len(skipped) > 0 {
		b.WriteString("\n⚠️ No data: " + strings.Join(skipped, ", ") + "\n")
	}

	return b.String()
}

func joinTimeframes(tfs []model.Timeframe) string {
	names := make([]string, len(tfs))
	for i, tf := range tfs {
		names[i] = string(tf)
	}
	return strings.Join(names, "/")
}

// timeframeLine renders the per-timeframe scores of a row, e.g. "W+1.2▲ D+0.8▲ H-0.1▼".
func timeframeLine(row *model.SymbolScore) string {
	order := []struct {
		tf    model.Timeframe
		label string
	}{
		{model.TimeframeWeekly, "W"},
		{model.TimeframeDaily, "D"},
		{model.TimeframeHourly, "H"},
	}
	parts := make([]string, 0, len(order))
	for _, o := range order {
		res, ok := row.Timeframes[o.tf]
		if !ok || res == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s%s%s", o.label, fmtVal(res.Score, "%+.2f"), biasArrow(res.Bias)))
	}
	return strings.Join(parts, " ")
}

func skippedSymbols(rows []model.SymbolScore) []string {
	var out []string
	for _, row := range rows {
		if row.Skipped {
			out = append(out, row.Symbol)
		}
	}
	return out
}

func symbolNames(rows []model.SymbolScore) []string {
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = row.Symbol
	}
	return out
}

// FormatSpotReport formats an intraday spot scan into a Telegram message.
func FormatSpotReport(metrics []*model.SpotMetrics, topN int) string {
	var b strings.Builder

	b.WriteString("⚡ <b>Spot Scan</b>")
	if len(metrics) > 0 {
		b.WriteString(" | " + metrics[0].Timestamp.Format("2006-01-02 15:04"))
	}
	b.WriteString("\n\n")

	limit := topN
	if limit <= 0 || limit > len(metrics) {
		limit = len(metrics)
	}
	for i := 0; i < limit; i++ {
		m := metrics[i]
		mark := ""
		if m.MomentumAligned {
			mark = " ✓"
		}
		b.WriteString(fmt.Sprintf("%2d. <b>%s</b> %.2f  mom %s%s%s\n",
			i+1, m.Symbol, m.Price, fmtVal(m.Momentum, "%+.4f"), biasArrow(m.MomentumBias), mark))
		b.WriteString(fmt.Sprintf("    day range %s ATR, 20d high %s%%\n",
			fmtVal(m.DailyRangeConsumed, "%.2f"), fmtVal(m.PctFrom20DHigh, "%+.1f")))
	}

	return b.String()
}

// FormatSpotDetail formats a single-symbol spot snapshot.
func FormatSpotDetail(m *model.SpotMetrics) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("⚡ <b>%s</b>", m.Symbol))
	if m.Sector != "" {
		b.WriteString(fmt.Sprintf(" (%s)", m.Sector))
	}
	b.WriteString(fmt.Sprintf(" | %s\n\n", m.Timestamp.Format("2006-01-02 15:04")))

	b.WriteString(fmt.Sprintf("Price: %.2f\n", m.Price))
	b.WriteString(fmt.Sprintf("Momentum: %s %s", fmtVal(m.Momentum, "%+.4f"), biasArrow(m.MomentumBias)))
	if m.MomentumAligned {
		b.WriteString(" aligned")
	}
	b.WriteString("\n\n")

	b.WriteString("<b>Relative strength vs benchmark:</b>\n")
	order := []struct {
		tf    model.Timeframe
		label string
	}{
		{model.Timeframe1H, "1h"},
		{model.Timeframe15M, "15m"},
		{model.Timeframe5M, "5m"},
	}
	for _, o := range order {
		tf, ok := m.Intraday[o.tf]
		if !ok || tf == nil {
			continue
		}
		b.WriteString(fmt.Sprintf("  %s: RS %s, ATR %s, rvol %s\n",
			o.label, fmtVal(tf.RelStrength, "%+.4f"), fmtVal(tf.ATR, "%.3f"), fmtVal(tf.RelVolume, "%.2f")))
	}

	b.WriteString("\n<b>Ranges:</b>\n")
	b.WriteString(fmt.Sprintf("  ATR w/d/h: %s / %s / %s\n",
		fmtVal(m.WeeklyATR, "%.2f"), fmtVal(m.DailyATR, "%.2f"), fmtVal(m.HourlyATR, "%.2f")))
	b.WriteString(fmt.Sprintf("  Range consumed d/w: %s / %s ATR\n",
		fmtVal(m.DailyRangeConsumed, "%.2f"), fmtVal(m.WeeklyRangeConsumed, "%.2f")))
	b.WriteString(fmt.Sprintf("  Daily rvol: %s\n\n", fmtVal(m.RVolDaily, "%.2f")))

	b.WriteString("<b>Levels:</b>\n")
	b.WriteString(fmt.Sprintf("  Day: %s%% from high %.2f, %s%% from low %.2f\n",
		fmtVal(m.PctFromDayHigh, "%+.1f"), m.DailyHigh, fmtVal(m.PctFromDayLow, "%+.1f"), m.DailyLow))
	b.WriteString(fmt.Sprintf("  20d: %s%% from high %.2f, %s%% from low %.2f\n",
		fmtVal(m.PctFrom20DHigh, "%+.1f"), m.High20D, fmtVal(m.PctFrom20DLow, "%+.1f"), m.Low20D))

	return b.String()
}
