package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/term"

	"github.com/avolkovs/pennywise/internal/api"
)

// readString prompts and reads a single trimmed line.
func (a *App) readString(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := a.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readPassword prompts and reads a line without echoing it.
func (a *App) readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func (a *App) readAmount(prompt string) (decimal.Decimal, error) {
	s, err := a.readString(prompt)
	if err != nil {
		return decimal.Zero, err
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return amount, nil
}

// readDate accepts YYYY-MM-DD; an empty input means today.
func (a *App) readDate(prompt string) (time.Time, error) {
	s, err := a.readString(prompt)
	if err != nil {
		return time.Time{}, err
	}
	if s == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	d, err := time.Parse(api.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}
