package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	p := NewCommandParser()

	testCases := []struct {
		name  string
		text  string
		cmd   string
		args  []string
		isCmd bool
	}{
		{name: "восклицательный знак", text: "!открыть 3", cmd: "открыть", args: []string{"3"}, isCmd: true},
		{name: "точка и регистр", text: ".КРЕДИТЫ", cmd: "кредиты", args: []string{}, isCmd: true},
		{name: "слэш с именем бота", text: "/start@casebot", cmd: "start", args: []string{}, isCmd: true},
		{name: "пробелы вокруг", text: "  !отсыпать   @vasya  100 ", cmd: "отсыпать", args: []string{"@vasya", "100"}, isCmd: true},
		{name: "обычный текст", text: "привет всем", isCmd: false},
		{name: "голый префикс", text: "!", isCmd: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, args, ok := p.ParseCommand(tc.text)
			assert.Equal(t, tc.isCmd, ok)
			if !tc.isCmd {
				return
			}
			assert.Equal(t, tc.cmd, cmd)
			assert.Equal(t, tc.args, args)
		})
	}
}
