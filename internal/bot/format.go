package bot

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"routine-planner/internal/model"
	"routine-planner/internal/service"
)

const helpText = `<b>Commands</b>
/startday – open a day with all active daily tasks
/closeday – close the day, unfinished items fail
/startweek – open a week (closes the previous one)
/closeweek – close the week, unfinished weekly items fail
/today – items of the open day
/week – items of the open week
/backlog – add backlog tasks to the day or week
/stats – penalty totals`

var statusIcons = map[model.InstanceStatus]string{
	model.StatusPlanned:  "⬜",
	model.StatusDone:     "✅",
	model.StatusCanceled: "➖",
	model.StatusFailed:   "❌",
}

func emptyListText(scope string) string {
	if scope == service.ScopeWeek {
		return "Nothing in the week. Start one with /startweek or add backlog tasks."
	}
	return "Nothing in the day. Start one with /startday or add backlog tasks."
}

// renderInstances lists a period's items; planned ones get done/cancel buttons.
func renderInstances(scope string, items []model.Instance) (string, [][]tgbotapi.InlineKeyboardButton) {
	var builder strings.Builder
	if scope == service.ScopeWeek {
		builder.WriteString("🗓 <b>Week</b>\n")
	} else {
		builder.WriteString("📅 <b>Today</b>\n")
	}

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, inst := range items {
		title := titleOf(inst)
		builder.WriteString(fmt.Sprintf("%s %s", statusIcons[inst.Status], escape(title)))
		if inst.Task != nil && inst.Task.Kind == model.KindBacklog {
			builder.WriteString(" <i>(backlog)</i>")
		}
		builder.WriteByte('\n')

		if inst.Status != model.StatusPlanned {
			continue
		}
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ "+shortTitle(title, 24), fmt.Sprintf("%s%d", cbDonePrefix, inst.ID)),
			tgbotapi.NewInlineKeyboardButtonData("➖ Cancel", fmt.Sprintf("%s%d", cbCancelPrefix, inst.ID)),
		))
	}
	return strings.TrimSpace(builder.String()), buttons
}

// renderBacklog lists active backlog tasks with buttons enrolling them.
func renderBacklog(tasks []model.Task) (string, [][]tgbotapi.InlineKeyboardButton) {
	var builder strings.Builder
	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, task := range tasks {
		if task.Kind != model.KindBacklog || !task.IsActive {
			continue
		}
		builder.WriteString(fmt.Sprintf("• %s\n", escape(normalizeTitle(task.Title))))
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("+ Day · "+shortTitle(task.Title, 18), fmt.Sprintf("%s%d", cbDayAddPrefix, task.ID)),
			tgbotapi.NewInlineKeyboardButtonData("+ Week", fmt.Sprintf("%s%d", cbWeekAddPrefix, task.ID)),
		))
	}
	if len(buttons) == 0 {
		return "No active backlog tasks. Create them in the mini app.", nil
	}
	return "📥 <b>Backlog</b>\n" + strings.TrimSpace(builder.String()), buttons
}

func renderStats(stats []service.PenaltyStats) string {
	labels := map[service.StatsPeriod]string{
		service.StatsDays:   "Days",
		service.StatsWeeks:  "Weeks",
		service.StatsMonths: "All time",
	}
	var builder strings.Builder
	builder.WriteString("📊 <b>Penalties</b>\n")
	for _, st := range stats {
		builder.WriteString(fmt.Sprintf("%s: %d failed, %s\n", labels[st.Period], st.FailedCount, st.TotalPenalty.StringFixed(2)))
	}
	return strings.TrimSpace(builder.String())
}

// parseCallback splits "done:12" into its prefix and id.
func parseCallback(data string) (string, uint, bool) {
	for _, prefix := range []string{cbDonePrefix, cbCancelPrefix, cbDayAddPrefix, cbWeekAddPrefix} {
		if !strings.HasPrefix(data, prefix) {
			continue
		}
		value, err := strconv.ParseUint(strings.TrimPrefix(data, prefix), 10, 64)
		if err != nil || value == 0 {
			return "", 0, false
		}
		return prefix, uint(value), true
	}
	return "", 0, false
}

func titleOf(inst model.Instance) string {
	if inst.Task == nil {
		return fmt.Sprintf("#%d", inst.ID)
	}
	return normalizeTitle(inst.Task.Title)
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	clean = normalizeTitle(clean)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func escape(s string) string {
	return html.EscapeString(s)
}
