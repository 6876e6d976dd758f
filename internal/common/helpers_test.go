package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPluralizeCredits(t *testing.T) {
	testCases := []struct {
		n    int64
		want string
	}{
		{n: 0, want: "кредитов"},
		{n: 1, want: "кредит"},
		{n: 2, want: "кредита"},
		{n: 4, want: "кредита"},
		{n: 5, want: "кредитов"},
		{n: 11, want: "кредитов"},
		{n: 12, want: "кредитов"},
		{n: 21, want: "кредит"},
		{n: 22, want: "кредита"},
		{n: 111, want: "кредитов"},
		{n: -1, want: "кредит"},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprint(tc.n), func(t *testing.T) {
			assert.Equal(t, tc.want, PluralizeCredits(tc.n))
		})
	}
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "999", FormatNumber(999))
	assert.Equal(t, "2 350", FormatNumber(2350))
	assert.Equal(t, "1 000 005", FormatNumber(1000005))
	assert.Equal(t, "-2 350", FormatNumber(-2350))
}

func TestFormatCreditsAmount(t *testing.T) {
	assert.Equal(t, "+100 кредитов", FormatCreditsAmount(100))
	assert.Equal(t, "-50 кредитов", FormatCreditsAmount(-50))
	assert.Equal(t, "+1 кредит", FormatCreditsAmount(1))
	assert.Equal(t, "1 500 кредитов", FormatBalance(1500))
}

func TestUserMessage_DistinctPerKind(t *testing.T) {
	kinds := []error{
		ErrUserNotFound, ErrCaseNotFound, ErrCaseNotOwned,
		ErrEmptyCase, ErrInvalidCaseContents,
	}
	seen := make(map[string]bool)
	for _, err := range kinds {
		msg := UserMessage(fmt.Errorf("обёртка: %w", err))
		assert.False(t, seen[msg], "сообщение повторяется: %s", msg)
		seen[msg] = true
	}

	internal := UserMessage(errors.New("pq: connection reset by peer"))
	assert.NotContains(t, internal, "connection")
	assert.False(t, seen[internal])
	assert.Equal(t, "", UserMessage(nil))
}
