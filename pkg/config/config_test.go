package config

import (
	"testing"

	"formulagame/pkg/opponent"
	"formulagame/pkg/race"
)

func TestFromEnv(t *testing.T) {
	cases := []struct {
		name  string
		env   map[string]string
		check func(t *testing.T, c *Config)
	}{
		{
			name: "defaults",
			env:  map[string]string{},
			check: func(t *testing.T, c *Config) {
				if c.WebserverAddress != ":8080" || c.Settings != race.DefaultSettings() || c.Opponent != opponent.ModerateName {
					t.Fatalf("unexpected defaults %+v", c)
				}
			},
		},
		{
			name: "overrides",
			env: map[string]string{
				"WEBSERVER_ADDRESS": ":9000",
				"TELEGRAM_TOKEN":    "token",
				"FORMULA_DB":        "/tmp/game.db",
				"FORMULA_TURNS":     "9",
				"FORMULA_FINISH":    "second-chance",
				"FORMULA_HISTORY":   "5",
				"FORMULA_OPPONENT":  "Easy",
			},
			check: func(t *testing.T, c *Config) {
				want := race.Settings{Turns: race.NineTurns, Finish: race.FinishSecondChance, History: race.History5}
				if c.Settings != want {
					t.Fatalf("expected %+v, got %+v", want, c.Settings)
				}
				if c.WebserverAddress != ":9000" || c.TelegramToken != "token" || c.DBName != "/tmp/game.db" {
					t.Fatalf("unexpected overrides %+v", c)
				}
				if _, ok := c.Computer().(*opponent.Easy); !ok {
					t.Fatalf("expected the easy computer")
				}
			},
		},
		{
			name: "invalid values keep defaults",
			env: map[string]string{
				"FORMULA_TURNS":    "7",
				"FORMULA_FINISH":   "never",
				"FORMULA_HISTORY":  "abc",
				"FORMULA_OPPONENT": "hard",
			},
			check: func(t *testing.T, c *Config) {
				if c.Settings != race.DefaultSettings() || c.Opponent != opponent.ModerateName {
					t.Fatalf("expected defaults, got %+v", c)
				}
			},
		},
		{
			name: "two players",
			env:  map[string]string{"FORMULA_OPPONENT": "player"},
			check: func(t *testing.T, c *Config) {
				if c.Computer() != nil {
					t.Fatalf("expected no computer")
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := fromLookup(func(key string) string { return tc.env[key] })
			tc.check(t, c)
		})
	}
}
