package apps

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"formulagame/pkg/game"
	"formulagame/pkg/menus"
	"formulagame/pkg/resources"
	"formulagame/pkg/store"
)

const (
	menuStart     = "/start"
	menuMenu      = "/menu"
	buttonRace    = "Race"
	buttonTracks  = "Tracks"
	buttonResults = "Results"
	appName       = "menu"
)

var (
	menuKeyboard = tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonRace),
			tgbotapi.NewKeyboardButton(buttonTracks),
			tgbotapi.NewKeyboardButton(buttonResults),
		),
	)
)

type menuer struct{}

func (m menuer) Menu() tgbotapi.ReplyKeyboardMarkup {
	return menuKeyboard
}

type MainApp struct {
	bot       *tgbotapi.BotAPI
	accepters []Accepter
}

func NewMainApp(bot *tgbotapi.BotAPI, g *game.Manager, st *store.Manager, res *resources.Manager) *MainApp {
	raceApp := NewRaceApp(bot, menus.NewApplicationMenu(buttonRace, appName, menuer{}), g, st, res)
	tracksApp := NewTracksApp(bot, menus.NewApplicationMenu(buttonTracks, appName, menuer{}), raceApp, st, res)
	resultsApp := NewResultsApp(bot, menus.NewApplicationMenu(buttonResults, appName, menuer{}), st)

	return &MainApp{
		bot:       bot,
		accepters: []Accepter{raceApp, tracksApp, resultsApp},
	}
}

func (m *MainApp) AcceptCommand(command string) (bool, func(ctx context.Context, chatId int64) error) {
	if command == menuStart {
		return true, m.renderStart()
	} else if command == menuMenu {
		return true, m.renderMenu()
	}
	for _, accepter := range m.accepters {
		accept, handler := accepter.AcceptCommand(command)
		if accept {
			return true, handler
		}
	}

	return false, nil
}

func (m *MainApp) AcceptCallback(query *tgbotapi.CallbackQuery) (bool, func(ctx context.Context, query *tgbotapi.CallbackQuery) error) {
	for _, accepter := range m.accepters {
		accept, handler := accepter.AcceptCallback(query)
		if accept {
			return true, handler
		}
	}

	return false, nil
}

func (m *MainApp) AcceptButton(button string) (bool, func(ctx context.Context, chatId int64) error) {
	for _, accepter := range m.accepters {
		accept, handler := accepter.AcceptButton(button)
		if accept {
			return true, handler
		}
	}
	return false, nil
}

func (m *MainApp) renderStart() func(ctx context.Context, chatId int64) error {
	return func(ctx context.Context, chatId int64) error {
		message := "Hi, I am the formula bot. Race on squared paper against a friend or the computer.\n\n"
		message += "You can use these commands:\n\n"
		message += fmt.Sprintf("%s - Shows the bot menu\n", menuMenu)
		message += fmt.Sprintf("%s - Lists the stored tracks\n", commandTracks)
		message += fmt.Sprintf("%s <track> - Starts a race on a stored track\n", commandRace)
		message += fmt.Sprintf("%s - Shows the current board\n", commandBoard)
		message += fmt.Sprintf("%s - Toggles the race results notifications\n", commandSubscribe)
		msg := tgbotapi.NewMessage(chatId, message)
		msg.ReplyMarkup = menuKeyboard
		_, err := m.bot.Send(msg)
		return err
	}
}

func (m *MainApp) renderMenu() func(ctx context.Context, chatId int64) error {
	return func(ctx context.Context, chatId int64) error {
		msg := tgbotapi.NewMessage(chatId, "Bot menu.\n\n")
		msg.ReplyMarkup = menuKeyboard
		_, err := m.bot.Send(msg)
		return err
	}
}
