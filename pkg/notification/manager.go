package notification

import (
	"context"
	"fmt"
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/nikoksr/notify"
	"github.com/nikoksr/notify/service/telegram"

	"formulagame/pkg/game"
	"formulagame/pkg/helper"
	"formulagame/pkg/store"
)

const subject = "Race finished:"

type Lister interface {
	ListSubscribers() ([]store.TelegramUser, error)
}

// ServiceFactory builds the service that delivers one notification to the
// given chats.
type ServiceFactory func(chatIDs []int64) notify.Notifier

type Manager struct {
	ctx     context.Context
	lister  Lister
	service ServiceFactory
}

func NewManager(ctx context.Context, bot *tgbotapi.BotAPI, lister Lister) *Manager {
	return NewManagerWithService(ctx, lister, func(chatIDs []int64) notify.Notifier {
		tg := &telegram.Telegram{}
		tg.SetClient(bot)
		tg.AddReceivers(chatIDs...)
		return tg
	})
}

func NewManagerWithService(ctx context.Context, lister Lister, service ServiceFactory) *Manager {
	return &Manager{
		ctx:     ctx,
		lister:  lister,
		service: service,
	}
}

func (m *Manager) Start(exitChan <-chan bool, winners <-chan game.Event) {
	for {
		select {
		case <-exitChan:
			return
		case ev, ok := <-winners:
			if !ok {
				return
			}
			if ev.Result == nil {
				continue
			}
			m.handleNotification(ev)
		}
	}
}

func (m *Manager) handleNotification(ev game.Event) {
	receipients, err := m.lister.ListSubscribers()
	if err != nil {
		log.Printf("Error listing subscribers: %s\n", err.Error())
		return
	}
	log.Printf("Sending race result on %q to %d telegram users\n", ev.Track, len(receipients))
	if err := m.sendNotification(receipients, ev); err != nil {
		log.Printf("Error notifying users: %s\n", err.Error())
	}
}

func (m *Manager) sendNotification(tusers []store.TelegramUser, ev game.Event) error {
	if len(tusers) == 0 {
		return nil
	}

	chatIDs := make([]int64, 0, len(tusers))
	for _, tuser := range tusers {
		chatId, err := strconv.ParseInt(tuser.ChatID, 0, 64)
		if err != nil {
			log.Printf("Skipping chat %q of %s: %s\n", tuser.ChatID, tuser.Name, err)
			continue
		}
		chatIDs = append(chatIDs, chatId)
	}
	if len(chatIDs) == 0 {
		return nil
	}

	n := notify.NewWithServices(m.service(chatIDs))
	return n.Send(m.ctx, subject, Message(ev))
}

// Message is the text sent for a winner event.
func Message(ev game.Event) string {
	track := ev.Track
	if track == "" {
		track = "unsaved track"
	}
	r := ev.Result
	if r == nil {
		return fmt.Sprintf("%s: %s", track, ev.Message)
	}
	if r.Draw {
		return fmt.Sprintf("%s: draw after %d moves (%s)", track, r.Moves, helper.FormatDistance(r.Distance))
	}
	return fmt.Sprintf("%s: %s won in %d moves (%s)", track, r.Name, r.Moves, helper.FormatDistance(r.Distance))
}
