package bot

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"familybudget/internal/core"
)

const (
	helpText = "Бот для учёта расходов\n\n" +
		"Добавить расход: 1500 продукты\n" +
		"Сегодняшняя статистика: /today\n" +
		"За текущий месяц: /month\n" +
		"Последние расходы: /expenses\n" +
		"Категории расходов: /categories\n" +
		"Резервная копия: /backup\n" +
		"Выгрузка в CSV: /export"

	formatErrorText  = "Неверный формат. Пример нужного формата: \n1000 продукты"
	storageErrorText = "Не получилось выполнить операцию, попробуй ещё раз"
)

var deleteCommandRe = regexp.MustCompile(`^/del(\d+)$`)

// parseDeleteCommand recognizes the /del<N> command appended to every
// recent-expense line.
func parseDeleteCommand(text string) (int64, bool) {
	m := deleteCommandRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, false
	}
	var id int64
	if _, err := fmt.Sscanf(m[1], "%d", &id); err != nil {
		return 0, false
	}
	return id, true
}

// FormatConfirmation is the family-wide message after a recorded expense.
func FormatConfirmation(conf core.Confirmation) string {
	return fmt.Sprintf("Добавлен расход: %d руб. на %s\nРасходы сегодня: %d руб.",
		conf.Expense.Amount, conf.Expense.CategoryName, conf.DayTotal)
}

func FormatDaySum(total int64) string {
	return fmt.Sprintf("Расходы сегодня: %d руб.", total)
}

// FormatMonthStatistic renders the ranked per-category breakdown.
func FormatMonthStatistic(title string, total int64, rows []core.CategoryBreakdown) string {
	if len(rows) == 0 {
		return "В этом месяце ещё нет расходов"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Расходы за %s: %d руб.\nСтатистика:\n", title, total)
	for _, row := range rows {
		fmt.Fprintf(&b, "%s: %.2f%% (%d руб.)\n",
			strings.ToUpper(row.Name), row.Percentage, row.Sum)
	}
	return strings.TrimRight(b.String(), "\n")
}

var ruMonths = [...]string{
	"январь", "февраль", "март", "апрель", "май", "июнь",
	"июль", "август", "сентябрь", "октябрь", "ноябрь", "декабрь",
}

// MonthTitle is the current month's heading: name in upper case plus the
// covered date range, e.g. "МАЙ (01.05.2026 - 14.05.2026)".
func MonthTitle(now time.Time) string {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return fmt.Sprintf("%s (%s - %s)",
		strings.ToUpper(ruMonths[now.Month()-1]),
		first.Format("02.01.2006"),
		now.Format("02.01.2006"))
}

// FormatCategories lists every category with its aliases and codename.
func FormatCategories(cats []core.Category) string {
	var b strings.Builder
	b.WriteString("Категории:\n")
	for _, c := range cats {
		aliases := strings.Join(c.Aliases, ", ")
		if aliases != "" {
			aliases += ", "
		}
		fmt.Fprintf(&b, "‣ %s (%s%s)\n", strings.ToUpper(c.Name), aliases, c.Codename)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatRecent lists the latest expenses, each with its delete command.
func FormatRecent(expenses []core.Expense) string {
	if len(expenses) == 0 {
		return "Расходов пока нет"
	}

	var b strings.Builder
	b.WriteString("Последние расходы:\n")
	for _, e := range expenses {
		fmt.Fprintf(&b, "- %d руб. на %s от %s /del%d\n",
			e.Amount, e.CategoryName, e.CreatedAt.Format("2006-01-02 15:04:05"), e.ID)
	}
	return strings.TrimRight(b.String(), "\n")
}
