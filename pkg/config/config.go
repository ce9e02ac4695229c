package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"formulagame/pkg/opponent"
	"formulagame/pkg/race"
	"formulagame/pkg/tracks"
)

// OpponentPlayer selects a second human player instead of the computer.
const OpponentPlayer = "player"

type Config struct {
	WebserverAddress string
	TelegramToken    string
	DBName           string
	ResourcesDir     string
	Settings         race.Settings
	Opponent         string
	PaperWidth       int
	PaperHeight      int
}

func Default() *Config {
	return &Config{
		WebserverAddress: ":8080",
		DBName:           "./formula-game.db",
		ResourcesDir:     "./resources",
		Settings:         race.DefaultSettings(),
		Opponent:         opponent.ModerateName,
		PaperWidth:       tracks.DefaultPaperWidth,
		PaperHeight:      tracks.DefaultPaperHeight,
	}
}

// FromEnv returns the defaults overridden by the environment. Invalid
// values are logged and ignored.
func FromEnv() *Config {
	return fromLookup(os.Getenv)
}

func fromLookup(getenv func(string) string) *Config {
	c := Default()
	if v := getenv("WEBSERVER_ADDRESS"); v != "" {
		c.WebserverAddress = v
	}
	if v := getenv("TELEGRAM_TOKEN"); v != "" {
		c.TelegramToken = v
	}
	if v := getenv("FORMULA_DB"); v != "" {
		c.DBName = v
	}
	if v := getenv("FORMULA_RESOURCES"); v != "" {
		c.ResourcesDir = v
	}
	if v := getenv("FORMULA_TURNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			var turns race.TurnsCount
			turns, err = race.ParseTurnsCount(n)
			if err == nil {
				c.Settings.Turns = turns
			}
		}
		if err != nil {
			log.Printf("Ignoring FORMULA_TURNS=%q: %s\n", v, err)
		}
	}
	if v := getenv("FORMULA_FINISH"); v != "" {
		finish, err := race.ParseFinishType(v)
		if err != nil {
			log.Printf("Ignoring FORMULA_FINISH=%q: %s\n", v, err)
		} else {
			c.Settings.Finish = finish
		}
	}
	if v := getenv("FORMULA_HISTORY"); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			n, err = race.ParseHistoryLength(n)
			if err == nil {
				c.Settings.History = n
			}
		}
		if err != nil {
			log.Printf("Ignoring FORMULA_HISTORY=%q: %s\n", v, err)
		}
	}
	if v := getenv("FORMULA_OPPONENT"); v != "" {
		name := strings.ToLower(v)
		if _, err := opponent.New(name); err != nil && name != OpponentPlayer {
			log.Printf("Ignoring FORMULA_OPPONENT=%q: %s\n", v, err)
		} else {
			c.Opponent = name
		}
	}
	return c
}

func (c *Config) Paper() tracks.Paper {
	return tracks.Paper{Width: c.PaperWidth, Height: c.PaperHeight}
}

// Computer builds the configured opponent, nil for two human players.
func (c *Config) Computer() opponent.Policy {
	if c.Opponent == OpponentPlayer {
		return nil
	}
	p, err := opponent.New(c.Opponent)
	if err != nil {
		log.Printf("Unknown opponent %q, playing against %s\n", c.Opponent, opponent.ModerateName)
		return &opponent.Moderate{}
	}
	return p
}
