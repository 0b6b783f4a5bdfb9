// Package console is a line-oriented chat transport for local development.
// It drives the full conversation loop from a terminal: plain lines arrive
// as text messages and "/press <token>" simulates a button tap.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"cardpro/internal/bot"
)

type Transport struct {
	user   bot.UserRef
	out    io.Writer
	events chan bot.Event

	mu sync.Mutex
}

// New builds a transport that reads events from in and prints outbound
// messages to out, attributing everything to a single dev user.
func New(in io.Reader, out io.Writer, userID int64) *Transport {
	t := &Transport{
		user:   bot.UserRef{ID: userID, Username: "dev", FullName: "Dev User"},
		out:    out,
		events: make(chan bot.Event),
	}
	go t.readLoop(in)
	return t
}

func (t *Transport) readLoop(in io.Reader) {
	defer close(t.events)
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if data, ok := strings.CutPrefix(line, "/press "); ok {
			t.events <- bot.ButtonPress{User: t.user, Data: strings.TrimSpace(data)}
			continue
		}
		t.events <- bot.TextMessage{User: t.user, Text: line}
	}
}

// Events implements bot.Transport.
func (t *Transport) Events() <-chan bot.Event {
	return t.events
}

// Send implements bot.Sender. Keyboards are rendered as "label [token]"
// rows so buttons can be pressed with /press.
func (t *Transport) Send(_ context.Context, userID int64, text string, kb *bot.Keyboard) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.out, "\n--- to %d ---\n%s\n", userID, text)
	if kb != nil {
		for _, row := range kb.Rows {
			for _, btn := range row {
				fmt.Fprintf(t.out, "  %s [%s]\n", btn.Label, btn.Data)
			}
		}
	}
	return nil
}
