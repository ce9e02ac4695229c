package menus

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var (
	buttonBackTo = "Back to"
)

// Menuer is the app a sub menu returns to.
type Menuer interface {
	Menu() tgbotapi.ReplyKeyboardMarkup
}

type ApplicationMenu struct {
	Name     string
	From     string
	PrevMenu func() tgbotapi.ReplyKeyboardMarkup
}

func NewApplicationMenu(name, from string, prev Menuer) ApplicationMenu {
	return ApplicationMenu{
		Name:     name,
		From:     from,
		PrevMenu: prev.Menu,
	}
}

func (am *ApplicationMenu) ButtonBackTo() string {
	return buttonBackTo + " " + am.From
}
