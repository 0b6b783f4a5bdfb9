package bot

import (
	"fmt"
	"strings"

	"cardpro/internal/domain"
	"cardpro/internal/ledger"
)

// User-facing copy. Kept in one place so the flows read as control logic.

const welcomeText = `Hi! I am CardPRO.

I create selling product listings for Wildberries and Ozon in seconds, powered by AI.

What I can do:
- SEO titles that push your product to the top
- Selling descriptions with woven-in keywords
- Keyword and attribute suggestions
- Analysis and improvement of competitor listings

Tap "Create a listing" to try it.`

const fallbackText = `I did not understand that.

Use the menu, or send /help for instructions.`

const mainMenuText = "Main menu"

const genericFailureText = "Generation failed. Please try again in a few seconds."
const analyzeFailureText = "Analysis failed. Please try again in a few seconds."
const retryFailureText = "Something went wrong. Please try again."

func helpText(freeLimit, priceStandard, stdLimit, pricePro int) string {
	return fmt.Sprintf(`How to use the bot

Creating a listing:
1. Tap "Create a listing"
2. Pick a marketplace (WB or Ozon)
3. Send the product name
4. Answer the clarifying questions (or skip them)
5. Get your listing!

After generation you can:
- Another variant: a fresh version of the listing
- Change style: premium, budget, youthful, business

"My listings" keeps every generation.

"Invite a friend": 3 days of Pro for each one!

Plans:
Free — %d listings per day
Standard (%d ₽/mo) — %d listings + analysis + styles
Pro (%d ₽/mo) — unlimited

Commands: /start · /menu · /help`, freeLimit, priceStandard, stdLimit, pricePro)
}

func pricingText(freeLimit, priceStandard, stdLimit, pricePro int) string {
	return fmt.Sprintf(`CardPRO plans

Free
- %d listings per day
- Basic generation

Standard — %d ₽/mo
- %d listings per month
- Competitor analysis
- 4 delivery styles

Pro — %d ₽/mo
- Unlimited listings
- Everything in Standard
- Priority generation`, freeLimit, priceStandard, stdLimit, pricePro)
}

var planNames = map[domain.Plan]string{
	domain.PlanFree:     "Free",
	domain.PlanStandard: "Standard",
	domain.PlanPro:      "Pro",
}

func profileText(plan domain.Plan, quota ledger.QuotaStatus, user *domain.User, referrals int) string {
	var limitLine string
	switch plan {
	case domain.PlanFree:
		limitLine = fmt.Sprintf("Today: %d/%d", quota.Used, quota.Limit)
	case domain.PlanStandard:
		limitLine = fmt.Sprintf("This month: %d/%d", quota.Used, quota.Limit)
	default:
		limitLine = fmt.Sprintf("This month: %d (unlimited)", quota.Used)
	}

	expires := ""
	if plan != domain.PlanFree && user.SubExpiresAt != nil {
		expires = "\nSubscribed until: " + user.SubExpiresAt.Format("2006-01-02")
	}

	return fmt.Sprintf(`Your profile

Plan: %s%s
Listings: %s

Friends invited: %d
Bonus Pro days: %d`, planNames[plan], expires, limitLine, referrals, user.ReferralBonusDays)
}

func referralText(link string, referrals, bonusDays int) string {
	return fmt.Sprintf(`Invite a friend, get Pro!

Every new user who joins through your link earns you 3 days of Pro for free.

Your link:
%s

Invited: %d
Bonus days earned: %d`, link, referrals, bonusDays)
}

func quotaExceededText(st ledger.QuotaStatus) string {
	if st.Plan == domain.PlanFree {
		return fmt.Sprintf("Daily limit reached (%d listings per day).\n\nSubscribe to raise the limit.", st.Limit)
	}
	return fmt.Sprintf("Monthly limit reached (%d listings).", st.Limit)
}

func paymentText(planName string, price int, userID int64) string {
	return fmt.Sprintf(`Paying for the "%s" plan

Price: %d ₽/mo

To pay:
1. Transfer %d ₽ to card:
   1234 5678 9012 3456

2. Put this in the transfer note:
   KP-%d

3. After the transfer, tap "Confirm payment"

The subscription is activated within 15 minutes of verification.`, planName, price, price, userID)
}

func paymentRequestedText(planName string) string {
	return fmt.Sprintf(`Request sent!

Plan: %s
As soon as we confirm the payment the subscription is activated.
This usually takes up to 15 minutes.`, planName)
}

func adminPaymentNoticeText(from UserRef, planName string) string {
	return fmt.Sprintf(`Payment request

User: %s (@%s)
ID: %d
Plan: %s

Activate with the userplan tool or the admin API.`, from.FullName, from.Username, from.ID, planName)
}

func inviterCreditText(bonusDays, totalReferrals int) string {
	return fmt.Sprintf(`A new user joined through your link!

You earned +%d days of Pro.
Total invited: %d.`, bonusDays, totalReferrals)
}

func productPromptText(marketplace string) string {
	return fmt.Sprintf(`%s

What is the product?

Describe it as precisely as you can.

Examples:
- Women's running shoes Nike Air Max 90
- Non-stick cookware set, 5 pieces
- Vitamin C face serum 30 ml`, marketplace)
}

func questionsText(product, questions string) string {
	return fmt.Sprintf(`%s

Answer these questions so the listing comes out sharper:

%s

Write the answers in free form, short is fine.`, product, questions)
}

func genericQuestionsText(product string) string {
	return fmt.Sprintf(`%s

Tell me more about the product:
material, dimensions, color, who it is for, why it beats competitors...`, product)
}

func competitorPromptText(marketplace string) string {
	return fmt.Sprintf("%s\n\nCopy and send the title and description of the competitor's listing:", marketplace)
}

func historyListText(total, offset int) string {
	page := offset/historyPageSize + 1
	pages := (total + historyPageSize - 1) / historyPageSize
	return fmt.Sprintf("My listings — %d items (page %d/%d)\n\nTap one to view:", total, page, pages)
}

const historyEmptyText = `My listings

Nothing here yet. Create your first listing from the menu!`

func cardDetailText(card *domain.Generation) string {
	result := card.ResultText
	if result == "" {
		result = "Text was not stored"
	}
	header := fmt.Sprintf("%s — %s\n%s\n%s\n\n",
		card.Marketplace,
		card.ProductName,
		card.CreatedAt.Format("2006-01-02 15:04"),
		strings.Repeat("─", 28),
	)
	full := header + result
	if r := []rune(full); len(r) > messageChunkSize {
		full = string(r[:messageChunkSize-12]) + "\n\n…truncated"
	}
	return full
}

