package apps

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"formulagame/pkg/checklines"
	"formulagame/pkg/game"
	"formulagame/pkg/helper"
	"formulagame/pkg/menus"
	"formulagame/pkg/resources"
	"formulagame/pkg/standings"
	"formulagame/pkg/store"
	"formulagame/pkg/tracks"
)

const (
	commandTracks  = "/tracks"
	commandResults = "/results"

	subcommandPager   = "pager"
	subcommandTrack   = "track"
	subcommandRace    = "race"
	subcommandResults = "results"

	inlineKeyboardRace    = "Race"
	inlineKeyboardResults = "Results"
	symbolRace            = "🏎️"
	symbolResults         = "🏆"

	tracksPerPage = 6
)

type TracksApp struct {
	bot       *tgbotapi.BotAPI
	appMenu   menus.ApplicationMenu
	raceApp   *RaceApp
	store     *store.Manager
	resources *resources.Manager
}

func NewTracksApp(bot *tgbotapi.BotAPI, appMenu menus.ApplicationMenu, raceApp *RaceApp, st *store.Manager, res *resources.Manager) *TracksApp {
	return &TracksApp{
		bot:       bot,
		appMenu:   appMenu,
		raceApp:   raceApp,
		store:     st,
		resources: res,
	}
}

func (ta *TracksApp) AcceptCommand(command string) (bool, func(ctx context.Context, chatId int64) error) {
	if command == commandTracks {
		return true, func(ctx context.Context, chatId int64) error {
			return ta.sendTracks(chatId, 0, nil)
		}
	}
	return false, nil
}

func (ta *TracksApp) AcceptButton(button string) (bool, func(ctx context.Context, chatId int64) error) {
	if button == ta.appMenu.Name {
		return true, func(ctx context.Context, chatId int64) error {
			return ta.sendTracks(chatId, 0, nil)
		}
	}
	return false, nil
}

func (ta *TracksApp) AcceptCallback(query *tgbotapi.CallbackQuery) (bool, func(ctx context.Context, query *tgbotapi.CallbackQuery) error) {
	data := strings.Split(query.Data, ":")
	if len(data) < 2 {
		return false, nil
	}
	switch data[0] {
	case subcommandPager:
		if len(data) != 3 {
			return false, nil
		}
		return true, func(ctx context.Context, query *tgbotapi.CallbackQuery) error {
			return ta.handleNavigation(query, data[1:]...)
		}
	case subcommandTrack:
		name := strings.Join(data[1:], ":")
		return true, func(ctx context.Context, query *tgbotapi.CallbackQuery) error {
			return ta.sendTrack(query.Message.Chat.ID, name)
		}
	case subcommandRace:
		name := strings.Join(data[1:], ":")
		return true, func(ctx context.Context, query *tgbotapi.CallbackQuery) error {
			return ta.raceApp.StartRace(query.Message.Chat.ID, name)
		}
	}
	return false, nil
}

func (ta *TracksApp) sendTracks(chatId int64, currentPage int, messageId *int) error {
	list, err := ta.store.ListTracks()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		msg := tgbotapi.NewMessage(chatId, "There are no stored tracks yet")
		_, err := ta.bot.Send(msg)
		return err
	}

	text, keyboard := tracksTextMarkup(list, currentPage, tracksPerPage)
	var cfg tgbotapi.Chattable
	if messageId == nil {
		msg := tgbotapi.NewMessage(chatId, text)
		msg.ReplyMarkup = keyboard
		cfg = msg
	} else {
		msg := tgbotapi.NewEditMessageText(chatId, *messageId, text)
		msg.ReplyMarkup = &keyboard
		cfg = msg
	}

	_, err = ta.bot.Send(cfg)
	return err
}

func maxPages(total, count int) int {
	return (total + count - 1) / count
}

func tracksTextMarkup(list []store.TrackInfo, currentPage, count int) (text string, markup tgbotapi.InlineKeyboardMarkup) {
	from := currentPage * count
	to := from + count
	if to > len(list) {
		to = len(list)
	}
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, info := range list[from:to] {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s (%dx%d)", info.Name, info.Width, info.Height), subcommandTrack+":"+info.Name),
		))
	}

	var pager []tgbotapi.InlineKeyboardButton
	if currentPage > 0 {
		pager = append(pager, tgbotapi.NewInlineKeyboardButtonData("Previous", fmt.Sprintf("%s:prev:%d", subcommandPager, currentPage)))
	}
	if currentPage < maxPages(len(list), count)-1 {
		pager = append(pager, tgbotapi.NewInlineKeyboardButtonData("Next", fmt.Sprintf("%s:next:%d", subcommandPager, currentPage)))
	}
	if len(pager) > 0 {
		rows = append(rows, pager)
	}

	text = fmt.Sprintf("Stored tracks (page %d of %d)", currentPage+1, maxPages(len(list), count))
	markup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	return
}

func (ta *TracksApp) handleNavigation(query *tgbotapi.CallbackQuery, data ...string) error {
	pagerType := data[0]
	currentPage, _ := strconv.Atoi(data[1])
	messageId := query.Message.MessageID

	switch pagerType {
	case "next":
		return ta.sendTracks(query.Message.Chat.ID, currentPage+1, &messageId)
	case "prev":
		if currentPage > 0 {
			return ta.sendTracks(query.Message.Chat.ID, currentPage-1, &messageId)
		}
	}
	return nil
}

// sendTrack sends the thumbnail of a stored track with its actions.
func (ta *TracksApp) sendTrack(chatId int64, name string) error {
	data, err := ta.store.LoadTrack(name)
	if err != nil {
		msg := tgbotapi.NewMessage(chatId, fmt.Sprintf("There is no track called %q", name))
		_, serr := ta.bot.Send(msg)
		if serr != nil {
			return serr
		}
		return err
	}
	t, paper, err := tracks.Unmarshal(data)
	if err != nil {
		return err
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(inlineKeyboardRace+" "+symbolRace, subcommandRace+":"+name),
			tgbotapi.NewInlineKeyboardButtonData(inlineKeyboardResults+" "+symbolResults, subcommandResults+":"+name),
		),
	)
	caption := fmt.Sprintf("%s (%dx%d)", name, paper.Width, paper.Height)

	s := game.Snapshot{
		TrackName:  name,
		Paper:      paper,
		Left:       t.Left(),
		Right:      t.Right(),
		Ready:      t.Ready(),
		CheckLines: checklines.Analyze(t),
	}
	res, err := ta.resources.BuildTrackThumbnail(helper.ToID(name), s)
	if err != nil {
		log.Printf("Error building thumbnail: %s\n", err)
		msg := tgbotapi.NewMessage(chatId, caption)
		msg.ReplyMarkup = keyboard
		_, err := ta.bot.Send(msg)
		return err
	}

	photo := tgbotapi.NewPhoto(chatId, tgbotapi.FilePath(res.FilePath()))
	photo.Caption = caption
	photo.ReplyMarkup = keyboard
	_, err = ta.bot.Send(photo)
	return err
}

type ResultsApp struct {
	bot     *tgbotapi.BotAPI
	appMenu menus.ApplicationMenu
	store   *store.Manager
}

func NewResultsApp(bot *tgbotapi.BotAPI, appMenu menus.ApplicationMenu, st *store.Manager) *ResultsApp {
	return &ResultsApp{
		bot:     bot,
		appMenu: appMenu,
		store:   st,
	}
}

func (ra *ResultsApp) AcceptCommand(command string) (bool, func(ctx context.Context, chatId int64) error) {
	fields := strings.Fields(command)
	if len(fields) == 0 || fields[0] != commandResults {
		return false, nil
	}
	track := strings.TrimSpace(strings.TrimPrefix(command, commandResults))
	return true, func(ctx context.Context, chatId int64) error {
		return ra.sendResults(chatId, track)
	}
}

func (ra *ResultsApp) AcceptButton(button string) (bool, func(ctx context.Context, chatId int64) error) {
	if button == ra.appMenu.Name {
		return true, func(ctx context.Context, chatId int64) error {
			return ra.sendResults(chatId, "")
		}
	}
	return false, nil
}

func (ra *ResultsApp) AcceptCallback(query *tgbotapi.CallbackQuery) (bool, func(ctx context.Context, query *tgbotapi.CallbackQuery) error) {
	data := strings.Split(query.Data, ":")
	if len(data) < 2 || data[0] != subcommandResults {
		return false, nil
	}
	track := strings.Join(data[1:], ":")
	return true, func(ctx context.Context, query *tgbotapi.CallbackQuery) error {
		return ra.sendResults(query.Message.Chat.ID, track)
	}
}

func (ra *ResultsApp) sendResults(chatId int64, track string) error {
	records, err := ra.store.ListResults(track, 0)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		msg := tgbotapi.NewMessage(chatId, "No races finished yet")
		_, err := ra.bot.Send(msg)
		return err
	}
	title := "Latest races"
	if track != "" {
		title = fmt.Sprintf("Best races on %s", track)
	}
	msg := tgbotapi.NewMessage(chatId, fmt.Sprintf("```\n%s\n\n%s```", title, standings.Results(records)))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	_, err = ra.bot.Send(msg)
	return err
}
