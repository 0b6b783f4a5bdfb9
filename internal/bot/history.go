package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"cardpro/internal/domain"
)

// onMyCards shows one page of the user's saved listings. The callback
// carries the page offset ("my_cards:15").
func (b *Bot) onMyCards(ctx context.Context, from UserRef, data string) {
	offset, _ := strconv.Atoi(strings.TrimPrefix(data, cbMyCards+":"))
	if offset < 0 {
		offset = 0
	}

	total, err := b.gens.CountWithResult(ctx, from.ID)
	if err != nil {
		b.send(ctx, from.ID, retryFailureText, backKb())
		return
	}
	if total == 0 {
		b.send(ctx, from.ID, historyEmptyText, backKb())
		return
	}
	if offset >= total {
		offset = (total - 1) / historyPageSize * historyPageSize
	}

	cards, err := b.gens.ListWithResult(ctx, from.ID, historyPageSize, offset)
	if err != nil {
		b.send(ctx, from.ID, retryFailureText, backKb())
		return
	}

	b.send(ctx, from.ID, historyListText(total, offset), historyKb(cards, offset, total))
}

// onShowCard renders a single saved listing ("show_card:<id>:<offset>").
// The offset rides along so Back returns to the same page.
func (b *Bot) onShowCard(ctx context.Context, from UserRef, data string) {
	parts := strings.Split(strings.TrimPrefix(data, cbShowCard+":"), ":")
	if len(parts) == 0 || parts[0] == "" {
		return
	}
	id := parts[0]
	offset := 0
	if len(parts) > 1 {
		offset, _ = strconv.Atoi(parts[1])
	}

	card, err := b.gens.GetByID(ctx, id, from.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			b.send(ctx, from.ID, "That listing is no longer available.", cardDetailKb(offset))
			return
		}
		b.send(ctx, from.ID, retryFailureText, cardDetailKb(offset))
		return
	}

	b.send(ctx, from.ID, cardDetailText(card), cardDetailKb(offset))
}
