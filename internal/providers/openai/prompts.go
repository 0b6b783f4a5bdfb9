package openai

import (
	"fmt"
	"strings"
)

// SystemPrompt frames every card-producing call. Wording is deliberately
// prescriptive: the output format downstream chunking relies on is part of
// the contract.
const SystemPrompt = `You are the best SEO specialist for product listings on the Wildberries and Ozon marketplaces.
You have 7 years of experience and know the ranking algorithms and buyer behavior in detail.

GENERATION RULES:
1. Title: main keywords first, up to 100 characters (WB) or 150 (Ozon). No caps lock, no emoji.
2. Description: 500-1000 characters. Every sentence carries value. Keywords woven in naturally. Lead with the main benefit.
3. Keywords: 15-25 items, high-frequency first. Include synonyms and colloquial variants.
4. Attributes: only those that actually affect the purchase decision in this category.

STYLE:
- Write for a real person, not a robot
- Stress concrete benefits over abstract positives
- Use numbers and facts where possible
- Never write "unique", "innovative", "the best"
- Never open the description with "Introducing" or "This product"`

const questionsTemplate = `You are helping a seller on the %s marketplace build the perfect product listing.

Product: %s

Ask 3-5 short questions whose answers are critical for a selling listing of this exact product.

RULES:
- Questions must be specific to this product, not generic
- Ask about what actually drives the buyer's decision
- Do not ask for the name or marketplace, those are known
- Do not ask for the price, it is not part of the listing
- Number the questions
- One line per question, short and clear
- Add an example answer in parentheses`

const cardTemplate = `Marketplace: %s
Product: %s
%s

Generate a product listing in the following format:

TITLE:
[title]

DESCRIPTION:
[description]

KEYWORDS:
[comma separated]

RECOMMENDED ATTRIBUTES:
[attribute: value, one per line]`

const analyzeTemplate = `Analyze a competitor's product listing on %s and create an improved version.

Competitor listing text:
---
%s
---

Response format:

ANALYSIS:
Strengths:
[2-3 bullet points]

Weaknesses:
[2-3 bullet points]

IMPROVED TITLE:
[title]

IMPROVED DESCRIPTION:
[description]

EXPANDED KEYWORDS:
[comma separated]`

const rewriteTemplate = `Rewrite the product listing in a different style. Keep all keywords and facts, change only the delivery.

Original listing:
---
%s
---

New style: %s
Marketplace: %s

Format: same as the original (title, description, keywords, attributes).`

// QuestionsPrompt fills the question-elicitation template.
func QuestionsPrompt(marketplace, productName string) string {
	return fmt.Sprintf(questionsTemplate, marketplace, productName)
}

// CardPrompt fills the card-generation template. An empty details string
// omits the seller-details block entirely.
func CardPrompt(marketplace, productName, details string) string {
	detailsBlock := ""
	if strings.TrimSpace(details) != "" {
		detailsBlock = "Seller details:\n" + details
	}
	return fmt.Sprintf(cardTemplate, marketplace, productName, detailsBlock)
}

// AnalyzePrompt fills the competitor-analysis template.
func AnalyzePrompt(marketplace, competitorText string) string {
	return fmt.Sprintf(analyzeTemplate, marketplace, competitorText)
}

// RewritePrompt fills the style-rewrite template.
func RewritePrompt(marketplace, originalText, style string) string {
	return fmt.Sprintf(rewriteTemplate, originalText, style, marketplace)
}
