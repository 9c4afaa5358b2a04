// Package bot is the Telegram transport around the ledger. It owns the
// update loop, the static allow-list and message formatting; all ledger
// semantics stay behind services.LedgerService.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"familybudget/internal/core"
	"familybudget/internal/export"
	"familybudget/internal/services"
)

const recentLimit = 10

type Handler struct {
	api       *tgbotapi.BotAPI
	ledger    *services.LedgerService
	allowed   map[int64]struct{}
	backupDir string
	exportDir string
}

func NewHandler(api *tgbotapi.BotAPI, ledger *services.LedgerService, allowedIDs []int64, backupDir, exportDir string) *Handler {
	allowed := make(map[int64]struct{}, len(allowedIDs))
	for _, id := range allowedIDs {
		allowed[id] = struct{}{}
	}
	return &Handler{
		api:       api,
		ledger:    ledger,
		allowed:   allowed,
		backupDir: backupDir,
		exportDir: exportDir,
	}
}

// Run consumes the long-polling update channel until ctx is done.
func (h *Handler) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := h.api.GetUpdatesChan(u)

	slog.Info("Bot update loop started", "username", h.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			h.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	chatID := update.Message.Chat.ID
	text := update.Message.Text

	if _, ok := h.allowed[chatID]; !ok {
		slog.Warn("Message from unknown chat rejected", "chat_id", chatID)
		h.reply(ctx, chatID, "Доступ запрещен")
		return
	}

	slog.Info("Handling message", "chat_id", chatID, "text", text)

	if id, ok := parseDeleteCommand(text); ok {
		h.handleDelete(ctx, chatID, id)
		return
	}

	fields := strings.Fields(text)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "/start", "/help":
		h.reply(ctx, chatID, helpText)
	case "/today":
		h.handleToday(ctx, chatID)
	case "/month":
		h.handleMonth(ctx, chatID)
	case "/categories":
		h.handleCategories(ctx, chatID)
	case "/expenses":
		h.handleExpenses(ctx, chatID)
	case "/backup":
		h.handleBackup(ctx, chatID)
	case "/export":
		h.handleExport(ctx, chatID)
	default:
		h.handleEntry(ctx, chatID, text)
	}
}

func (h *Handler) handleEntry(ctx context.Context, chatID int64, text string) {
	conf, err := h.ledger.RecordExpense(ctx, chatID, text)
	switch {
	case errors.Is(err, core.ErrInvalidFormat), errors.Is(err, core.ErrInvalidAmount):
		h.reply(ctx, chatID, formatErrorText)
		return
	case err != nil:
		slog.ErrorContext(ctx, "Failed to record expense", "chat_id", chatID, "error", err)
		h.reply(ctx, chatID, storageErrorText)
		return
	}

	// The whole family sees every recorded expense.
	h.broadcast(ctx, FormatConfirmation(conf))
}

func (h *Handler) handleDelete(ctx context.Context, chatID, id int64) {
	err := h.ledger.DeleteExpense(ctx, id)
	switch {
	case errors.Is(err, core.ErrNotFound):
		h.reply(ctx, chatID, "Такой записи о расходе нет")
	case err != nil:
		slog.ErrorContext(ctx, "Failed to delete expense", "expense_id", id, "error", err)
		h.reply(ctx, chatID, storageErrorText)
	default:
		h.reply(ctx, chatID, "Запись о расходе удалена")
	}
}

func (h *Handler) handleToday(ctx context.Context, chatID int64) {
	total, err := h.ledger.TodaySum(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to sum today", "error", err)
		h.reply(ctx, chatID, storageErrorText)
		return
	}
	h.reply(ctx, chatID, FormatDaySum(total))
}

func (h *Handler) handleMonth(ctx context.Context, chatID int64) {
	text, err := h.monthStatisticText(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to build month statistic", "error", err)
		h.reply(ctx, chatID, storageErrorText)
		return
	}
	h.reply(ctx, chatID, text)
}

func (h *Handler) monthStatisticText(ctx context.Context) (string, error) {
	total, err := h.ledger.CurrentMonthSum(ctx)
	if err != nil {
		return "", err
	}
	rows, err := h.ledger.CurrentMonthBreakdown(ctx)
	if err != nil {
		return "", err
	}
	return FormatMonthStatistic(MonthTitle(time.Now()), total, rows), nil
}

func (h *Handler) handleCategories(ctx context.Context, chatID int64) {
	h.reply(ctx, chatID, FormatCategories(h.ledger.Categories()))
}

func (h *Handler) handleExpenses(ctx context.Context, chatID int64) {
	expenses, err := h.ledger.RecentExpenses(ctx, recentLimit)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list recent expenses", "error", err)
		h.reply(ctx, chatID, storageErrorText)
		return
	}
	h.reply(ctx, chatID, FormatRecent(expenses))
}

func (h *Handler) handleBackup(ctx context.Context, chatID int64) {
	path, err := h.ledger.Snapshot(h.backupDir)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to snapshot database", "error", err)
		h.reply(ctx, chatID, "Ошибка создания резервной копии базы данных!")
		return
	}
	h.sendDocument(ctx, chatID, path)
}

func (h *Handler) handleExport(ctx context.Context, chatID int64) {
	groups, err := h.ledger.MonthlyGroups(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to group expenses by month", "error", err)
		h.reply(ctx, chatID, storageErrorText)
		return
	}
	if len(groups) == 0 {
		h.reply(ctx, chatID, "Расходов пока нет")
		return
	}
	path, err := export.WriteFile(h.exportDir, groups, time.Now())
	if err != nil {
		slog.ErrorContext(ctx, "Failed to write export", "error", err)
		h.reply(ctx, chatID, "Ошибка выгрузки расходов!")
		return
	}
	h.sendDocument(ctx, chatID, path)
}

// SendDailyReminder implements worker.Notifier.
func (h *Handler) SendDailyReminder(ctx context.Context) error {
	h.broadcast(ctx, "Заполни расходы за сегодня 💸")
	return nil
}

// SendMonthlyReport implements worker.Notifier.
func (h *Handler) SendMonthlyReport(ctx context.Context) error {
	text, err := h.monthStatisticText(ctx)
	if err != nil {
		return err
	}
	h.broadcast(ctx, text)
	return nil
}

func (h *Handler) broadcast(ctx context.Context, text string) {
	for id := range h.allowed {
		h.reply(ctx, id, text)
	}
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	h.send(ctx, msg)
}

func (h *Handler) sendDocument(ctx context.Context, chatID int64, path string) {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	h.send(ctx, doc)
}

// send delivers one outbound message with a few retries; Telegram hiccups
// regularly enough that a single attempt loses confirmations.
func (h *Handler) send(ctx context.Context, c tgbotapi.Chattable) {
	err := retry.Do(
		func() error {
			_, err := h.api.Send(c)
			return err
		},
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to send message", "error", err)
	}
}
