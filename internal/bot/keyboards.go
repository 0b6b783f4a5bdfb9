package bot

import (
	"fmt"

	"cardpro/internal/domain"
)

// Callback vocabulary. Every button press carries one of these flat
// tokens, optionally with a colon-separated argument.
const (
	cbNewCard    = "new_card"
	cbAnalyze    = "analyze"
	cbMPWB       = "mp_wb"
	cbMPOzon     = "mp_ozon"
	cbSkip       = "skip_questions"
	cbRegenerate = "regenerate"
	cbRestyle    = "restyle"
	cbBackMain   = "back_main"
	cbProfile    = "profile"
	cbPricing    = "pricing"
	cbReferral   = "referral"
	cbHelp       = "help"
	cbMyCards    = "my_cards"
	cbShowCard   = "show_card"
	cbBuyPrefix  = "buy_"
	cbConfPrefix = "confirm_"
	cbStylePfx   = "style_"
)

const (
	marketplaceWB   = "Wildberries"
	marketplaceOzon = "Ozon"
)

// styleDirectives maps style tokens to the rewrite directive handed to the
// generation backend. Exactly four fixed styles are offered.
var styleDirectives = map[string]string{
	"style_premium":  "Premium, luxury tone: stress quality, exclusivity and status.",
	"style_budget":   "Budget tone: stress value for money and savings.",
	"style_young":    "Youthful tone: light, trendy, dynamic, short sentences.",
	"style_business": "Business tone: strict and factual, attributes and numbers only.",
}

func mainMenuKb() *Keyboard {
	return &Keyboard{Rows: [][]Button{
		{{Label: "Create a listing", Data: cbNewCard}},
		{{Label: "Analyze a competitor", Data: cbAnalyze}},
		{
			{Label: "My listings", Data: cbMyCards + ":0"},
			{Label: "Profile", Data: cbProfile},
		},
		{
			{Label: "Invite a friend", Data: cbReferral},
			{Label: "Plans", Data: cbPricing},
		},
		{{Label: "Help", Data: cbHelp}},
	}}
}

func marketplaceKb() *Keyboard {
	return &Keyboard{Rows: [][]Button{
		{
			{Label: marketplaceWB, Data: cbMPWB},
			{Label: marketplaceOzon, Data: cbMPOzon},
		},
		{{Label: "Back", Data: cbBackMain}},
	}}
}

func skipKb() *Keyboard {
	return &Keyboard{Rows: [][]Button{
		{{Label: "Skip, no details", Data: cbSkip}},
		{{Label: "Cancel", Data: cbBackMain}},
	}}
}

func afterGenerationKb() *Keyboard {
	return &Keyboard{Rows: [][]Button{
		{
			{Label: "Another variant", Data: cbRegenerate},
			{Label: "Change style", Data: cbRestyle},
		},
		{{Label: "New listing", Data: cbNewCard}},
		{{Label: "Main menu", Data: cbBackMain}},
	}}
}

func restyleKb() *Keyboard {
	return &Keyboard{Rows: [][]Button{
		{
			{Label: "Premium", Data: "style_premium"},
			{Label: "Budget", Data: "style_budget"},
		},
		{
			{Label: "Youthful", Data: "style_young"},
			{Label: "Business", Data: "style_business"},
		},
		{{Label: "Back", Data: cbBackMain}},
	}}
}

func pricingKb(priceStandard, pricePro int) *Keyboard {
	return &Keyboard{Rows: [][]Button{
		{{Label: fmt.Sprintf("Standard — %d ₽/mo", priceStandard), Data: cbBuyPrefix + "standard"}},
		{{Label: fmt.Sprintf("Pro — %d ₽/mo", pricePro), Data: cbBuyPrefix + "pro"}},
		{{Label: "Back", Data: cbBackMain}},
	}}
}

func confirmBuyKb(plan string) *Keyboard {
	return &Keyboard{Rows: [][]Button{
		{{Label: "Confirm payment", Data: cbConfPrefix + plan}},
		{{Label: "Back", Data: cbPricing}},
	}}
}

func backKb() *Keyboard {
	return &Keyboard{Rows: [][]Button{
		{{Label: "Back", Data: cbBackMain}},
	}}
}

const historyPageSize = 5

func historyKb(cards []domain.Generation, offset, total int) *Keyboard {
	kb := &Keyboard{}
	for _, card := range cards {
		name := card.ProductName
		if len([]rune(name)) > 30 {
			name = string([]rune(name)[:30]) + "…"
		}
		label := fmt.Sprintf("%s · %s · %s", card.Marketplace, name, card.CreatedAt.Format("2006-01-02"))
		kb.Rows = append(kb.Rows, []Button{{
			Label: label,
			Data:  fmt.Sprintf("%s:%s:%d", cbShowCard, card.ID, offset),
		}})
	}

	var nav []Button
	if offset > 0 {
		nav = append(nav, Button{Label: "◀", Data: fmt.Sprintf("%s:%d", cbMyCards, offset-historyPageSize)})
	}
	if offset+historyPageSize < total {
		nav = append(nav, Button{Label: "▶", Data: fmt.Sprintf("%s:%d", cbMyCards, offset+historyPageSize)})
	}
	if len(nav) > 0 {
		kb.Rows = append(kb.Rows, nav)
	}

	kb.Rows = append(kb.Rows, []Button{{Label: "Main menu", Data: cbBackMain}})
	return kb
}

func cardDetailKb(offset int) *Keyboard {
	return &Keyboard{Rows: [][]Button{
		{{Label: "Back to list", Data: fmt.Sprintf("%s:%d", cbMyCards, offset)}},
		{{Label: "Main menu", Data: cbBackMain}},
	}}
}
