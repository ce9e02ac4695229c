package main

import (
	"context"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"formulagame/pkg/apps"
	"formulagame/pkg/config"
	"formulagame/pkg/game"
	"formulagame/pkg/livemap"
	"formulagame/pkg/notification"
	"formulagame/pkg/pubsub"
	"formulagame/pkg/resources"
	"formulagame/pkg/store"
	"formulagame/pkg/webserver"
)

func main() {
	cfg := config.FromEnv()

	sm, err := store.NewManager(cfg.DBName)
	if err != nil {
		log.Panic(err)
	}
	defer sm.Close()

	rm, err := resources.NewManager(cfg.ResourcesDir)
	if err != nil {
		log.Panic(err)
	}

	ps := pubsub.NewPubSub[game.Event]()
	computer := cfg.Computer()
	gm := game.NewManager(ps, cfg.Settings, computer)
	gm.SetPaper(cfg.Paper())
	if computer != nil {
		gm.SetRacerNames("", "Computer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	exitChan := make(chan bool)
	defer close(exitChan)

	go sm.RecordResults(exitChan, ps.Subscribe(game.TopicWinner))

	ws := webserver.NewManager(cfg.WebserverAddress, rm.Dir())
	webserver.NewAPI(gm, sm, rm).Register(ws.Router())
	livemap.NewLiveMap(ws.Router(), gm, ps, rm)
	ws.Debug()

	if cfg.TelegramToken != "" {
		bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			log.Panic(err)
		}
		bot.Debug = false

		nm := notification.NewManager(ctx, bot, sm)
		go nm.Start(exitChan, ps.Subscribe(game.TopicWinner))

		mainApp := apps.NewMainApp(bot, gm, sm, rm)

		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		updates := bot.GetUpdatesChan(u)
		go receiveUpdates(ctx, mainApp, updates)
		defer bot.StopReceivingUpdates()

		log.Println("Start listening for updates. Press Ctrl-C to stop it")
	} else {
		log.Println("TELEGRAM_TOKEN is not set, the bot is disabled")
	}

	// blocks until interrupted
	ws.Serve(ctx)
}

func receiveUpdates(ctx context.Context, accepter apps.Accepter, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := apps.HandleUpdate(ctx, accepter, update); err != nil {
				log.Printf("An error occured: %s", err.Error())
			}
		}
	}
}
