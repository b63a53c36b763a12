package notify

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/samanvay/attendance_service/internal/model"
	"go.uber.org/zap"
)

// messageSender is the part of *bot.Bot the notifier uses.
type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
}

// TelegramNotifier posts close summaries to a staff chat.
type TelegramNotifier struct {
	sender   messageSender
	chatID   int64
	location *time.Location
	logger   *zap.Logger
}

// NewTelegramNotifier connects to the Bot API with the given token.
func NewTelegramNotifier(token string, chatID int64, location *time.Location, logger *zap.Logger) (*TelegramNotifier, error) {
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return newTelegramNotifier(b, chatID, location, logger), nil
}

func newTelegramNotifier(sender messageSender, chatID int64, location *time.Location, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		sender:   sender,
		chatID:   chatID,
		location: location,
		logger:   logger,
	}
}

// NotifyScopeClosed posts the summary card with the text summary as its
// caption. When the card cannot be rendered the text goes out alone.
func (n *TelegramNotifier) NotifyScopeClosed(ctx context.Context, summary *model.ScopeSummary) error {
	text := FormatSummary(summary, n.location)

	card, err := RenderSummaryCard(summary, n.location)
	if err != nil {
		n.logger.Warn("Failed to render summary card, sending text only",
			zap.String("scope", summary.Scope.Key()),
			zap.Error(err),
		)
		return n.sendText(ctx, text)
	}

	_, err = n.sender.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:    n.chatID,
		Photo:     &models.InputFileUpload{Filename: "attendance.png", Data: bytes.NewReader(card)},
		Caption:   text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send close summary: %w", err)
	}

	n.logger.Debug("Close summary sent",
		zap.Int64("chat_id", n.chatID),
		zap.String("scope", summary.Scope.Key()),
	)
	return nil
}

func (n *TelegramNotifier) sendText(ctx context.Context, text string) error {
	_, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    n.chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send close summary: %w", err)
	}
	return nil
}

// LogNotifier is used when no chat is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyScopeClosed(_ context.Context, summary *model.ScopeSummary) error {
	n.logger.Info("Attendance summary",
		zap.String("scope", summary.Scope.Key()),
		zap.String("title", summary.Title),
		zap.Int("present", summary.Present),
		zap.Int("eligible", summary.Eligible),
	)
	return nil
}
