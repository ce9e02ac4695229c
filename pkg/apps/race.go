package apps

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"formulagame/pkg/game"
	"formulagame/pkg/geometry"
	"formulagame/pkg/menus"
	"formulagame/pkg/race"
	"formulagame/pkg/resources"
	"formulagame/pkg/standings"
	"formulagame/pkg/store"
)

const (
	commandRace      = "/race"
	commandBoard     = "/board"
	commandStandings = "/standings"
	commandSubscribe = "/subscribe"

	buttonBoard     = "Board"
	buttonNewRace   = "New race"
	buttonStandings = "Standings"

	subcommandSlot  = "slot"
	subcommandStart = "start"
	subcommandNoop  = "noop"

	symbolCrash  = "💥"
	symbolFinish = "🏁"
	symbolEmpty  = "·"
)

// slotArrows are indexed like the candidate lattice, north up.
var slotArrows = [9]string{"↖", "↑", "↗", "←", "•", "→", "↙", "↓", "↘"}

type RaceApp struct {
	bot          *tgbotapi.BotAPI
	appMenu      menus.ApplicationMenu
	menuKeyboard tgbotapi.ReplyKeyboardMarkup
	game         *game.Manager
	store        *store.Manager
	resources    *resources.Manager
	mu           sync.Mutex
}

func NewRaceApp(bot *tgbotapi.BotAPI, appMenu menus.ApplicationMenu, g *game.Manager, st *store.Manager, res *resources.Manager) *RaceApp {
	menuKeyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonBoard),
			tgbotapi.NewKeyboardButton(buttonNewRace),
			tgbotapi.NewKeyboardButton(buttonStandings),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(appMenu.ButtonBackTo()),
		),
	)

	return &RaceApp{
		bot:          bot,
		appMenu:      appMenu,
		menuKeyboard: menuKeyboard,
		game:         g,
		store:        st,
		resources:    res,
	}
}

func (ra *RaceApp) Menu() tgbotapi.ReplyKeyboardMarkup {
	return ra.menuKeyboard
}

func (ra *RaceApp) AcceptCommand(command string) (bool, func(ctx context.Context, chatId int64) error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false, nil
	}
	switch fields[0] {
	case commandRace:
		name := strings.TrimSpace(strings.TrimPrefix(command, commandRace))
		return true, func(ctx context.Context, chatId int64) error {
			return ra.StartRace(chatId, name)
		}
	case commandBoard:
		return true, func(ctx context.Context, chatId int64) error {
			return ra.sendBoard(chatId)
		}
	case commandStandings:
		return true, ra.renderStandings()
	case commandSubscribe:
		return true, ra.toggleSubscription()
	}
	return false, nil
}

func (ra *RaceApp) AcceptButton(button string) (bool, func(ctx context.Context, chatId int64) error) {
	switch button {
	case ra.appMenu.Name:
		return true, func(ctx context.Context, chatId int64) error {
			msg := tgbotapi.NewMessage(chatId, fmt.Sprintf("%s application\n\n", ra.appMenu.Name))
			msg.ReplyMarkup = ra.menuKeyboard
			_, err := ra.bot.Send(msg)
			return err
		}
	case ra.appMenu.ButtonBackTo():
		return true, func(ctx context.Context, chatId int64) error {
			msg := tgbotapi.NewMessage(chatId, "OK")
			msg.ReplyMarkup = ra.appMenu.PrevMenu()
			_, err := ra.bot.Send(msg)
			return err
		}
	case buttonBoard:
		return true, func(ctx context.Context, chatId int64) error {
			return ra.sendBoard(chatId)
		}
	case buttonNewRace:
		return true, func(ctx context.Context, chatId int64) error {
			return ra.StartRace(chatId, "")
		}
	case buttonStandings:
		return true, ra.renderStandings()
	}
	return false, nil
}

func (ra *RaceApp) AcceptCallback(query *tgbotapi.CallbackQuery) (bool, func(ctx context.Context, query *tgbotapi.CallbackQuery) error) {
	data := strings.Split(query.Data, ":")
	switch data[0] {
	case subcommandNoop:
		return true, func(ctx context.Context, query *tgbotapi.CallbackQuery) error {
			return ra.answer(query, "")
		}
	case subcommandSlot, subcommandStart:
		if len(data) != 2 {
			return false, nil
		}
		index, err := strconv.Atoi(data[1])
		if err != nil {
			return false, nil
		}
		return true, func(ctx context.Context, query *tgbotapi.CallbackQuery) error {
			ra.mu.Lock()
			defer ra.mu.Unlock()
			return ra.play(query, data[0], index)
		}
	}
	return false, nil
}

// StartRace loads the stored track name, or reuses the track on the paper
// when name is empty, and puts both formulas on the start line.
func (ra *RaceApp) StartRace(chatId int64, name string) error {
	ra.mu.Lock()
	defer ra.mu.Unlock()

	if name != "" {
		data, err := ra.store.LoadTrack(name)
		if errors.Is(err, store.ErrNotFound) {
			return ra.sendText(chatId, fmt.Sprintf("There is no track called %q. Try %s", name, commandTracks))
		} else if err != nil {
			return err
		}
		if err := ra.game.LoadTrack(data); err != nil {
			return err
		}
		ra.game.SetTrackName(name)
	}
	if _, err := ra.game.PrepareGame(); err != nil {
		if errors.Is(err, game.ErrTrackNotReady) {
			return ra.sendText(chatId, fmt.Sprintf("There is no track ready. Pick one with %s", commandTracks))
		}
		return err
	}
	return ra.sendBoard(chatId)
}

func (ra *RaceApp) play(query *tgbotapi.CallbackQuery, kind string, index int) error {
	s := ra.game.Snapshot()
	var out game.TurnOutcome
	switch kind {
	case subcommandStart:
		if s.Stage != race.FirstTurn || index < 0 || index >= len(s.StartOptions) {
			return ra.answer(query, "The start positions are gone")
		}
		out = ra.game.ApplyTurn(s.StartOptions[index])
	case subcommandSlot:
		out = ra.game.ApplySlot(index)
	}
	if !out.Accepted {
		return ra.answer(query, "That move is not possible")
	}
	if err := ra.answer(query, ""); err != nil {
		log.Printf("Error answering callback: %s\n", err)
	}

	chatId := query.Message.Chat.ID
	if err := ra.sendBoard(chatId); err != nil {
		return err
	}
	if out.Winner != nil {
		return ra.renderStandings()(context.Background(), chatId)
	}
	return nil
}

func (ra *RaceApp) answer(query *tgbotapi.CallbackQuery, text string) error {
	_, err := ra.bot.Request(tgbotapi.NewCallback(query.ID, text))
	return err
}

func (ra *RaceApp) sendText(chatId int64, text string) error {
	msg := tgbotapi.NewMessage(chatId, text)
	_, err := ra.bot.Send(msg)
	return err
}

// sendBoard sends the rendered board with the moves of the racer on turn.
func (ra *RaceApp) sendBoard(chatId int64) error {
	s := ra.game.Snapshot()
	caption := boardCaption(s)
	keyboard, ok := boardKeyboard(s)

	res, err := ra.resources.BuildRacePNG(fmt.Sprintf("chat_%d", chatId), s)
	if err != nil {
		log.Printf("Error building board: %s\n", err)
		msg := tgbotapi.NewMessage(chatId, caption)
		if ok {
			msg.ReplyMarkup = keyboard
		}
		_, err := ra.bot.Send(msg)
		return err
	}

	photo := tgbotapi.NewPhoto(chatId, tgbotapi.FilePath(res.FilePath()))
	photo.Caption = caption
	if ok {
		photo.ReplyMarkup = keyboard
	}
	_, err = ra.bot.Send(photo)
	return err
}

func (ra *RaceApp) renderStandings() func(ctx context.Context, chatId int64) error {
	return func(ctx context.Context, chatId int64) error {
		msg := tgbotapi.NewMessage(chatId, fmt.Sprintf("```\n%s```", standings.Race(ra.game.Snapshot())))
		msg.ParseMode = tgbotapi.ModeMarkdownV2
		_, err := ra.bot.Send(msg)
		return err
	}
}

func (ra *RaceApp) toggleSubscription() func(ctx context.Context, chatId int64) error {
	return func(ctx context.Context, chatId int64) error {
		userCtxValue := ctx.Value(UserContextKey)
		if userCtxValue == nil {
			return ra.sendText(chatId, "The user could not be read")
		}
		user := userCtxValue.(*tgbotapi.User)
		subscribed, err := ra.store.ToggleSubscription(store.TelegramUser{
			ID:     fmt.Sprintf("%d", user.ID),
			Name:   user.UserName,
			ChatID: fmt.Sprintf("%d", chatId),
		})
		if err != nil {
			log.Printf("Error toggling subscription: %s\n", err)
			return ra.sendText(chatId, "The notifications could not be changed")
		}
		if subscribed {
			return ra.sendText(chatId, "You will be notified when a race finishes")
		}
		return ra.sendText(chatId, "Notifications are off")
	}
}

func racerName(s game.Snapshot, id int) string {
	for _, r := range s.Racers {
		if r.ID == id {
			return r.Name
		}
	}
	return fmt.Sprintf("Racer %d", id)
}

func boardCaption(s game.Snapshot) string {
	track := s.TrackName
	if track == "" {
		track = "the paper"
	}
	switch {
	case s.Result != nil:
		return s.Result.Message
	case s.Stage == race.FirstTurn:
		return fmt.Sprintf("%s chooses a start position on %s", racerName(s, s.ActID), track)
	case s.Stage.Racing():
		return fmt.Sprintf("%s is on turn", racerName(s, s.ActID))
	}
	return fmt.Sprintf("No race on %s. Start one with %s", track, commandRace)
}

// boardKeyboard offers the start positions on the first turn and the 3x3
// lattice afterwards.
func boardKeyboard(s game.Snapshot) (tgbotapi.InlineKeyboardMarkup, bool) {
	switch {
	case s.Stage == race.FirstTurn:
		return startKeyboard(s.StartOptions), len(s.StartOptions) > 0
	case s.Stage.Racing():
		return slotKeyboard(s.Candidates), true
	}
	return tgbotapi.InlineKeyboardMarkup{}, false
}

func startKeyboard(options []geometry.Point) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for i := range options {
		if i%3 == 0 {
			rows = append(rows, []tgbotapi.InlineKeyboardButton{})
		}
		label := fmt.Sprintf("%d", i+1)
		rows[len(rows)-1] = append(rows[len(rows)-1], tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s:%d", subcommandStart, i)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func slotKeyboard(set race.CandidateSet) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 3)
	for slot, c := range set {
		label, data := symbolEmpty, subcommandNoop
		switch c.Kind {
		case race.Clean:
			label = slotArrows[slot]
			if c.Point.Location == geometry.Finish || c.Point.Location == geometry.FinishLine {
				label = symbolFinish + label
			}
			data = fmt.Sprintf("%s:%d", subcommandSlot, slot)
		case race.Collision:
			label = symbolCrash + slotArrows[slot]
			data = fmt.Sprintf("%s:%d", subcommandSlot, slot)
		}
		rows[slot/3] = append(rows[slot/3], tgbotapi.NewInlineKeyboardButtonData(label, data))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
