package anthropic

import (
	"fmt"
	"strings"

	"github.com/DukeRupert/drapery/internal/ai"
)

// buildAdvicePrompt describes the room and the catalog and asks for a JSON answer.
func buildAdvicePrompt(params ai.AdviceParams) string {
	var b strings.Builder

	b.WriteString(`You are an interior designer who specialises in window treatments. A customer of an online curtain shop has described their room. Recommend up to three curtains from the catalog below.

Consider:
- How much light the room gets and whether it needs blackout, filtering or sheer fabric
- The room's purpose (bedrooms usually need darkness, living rooms warmth, kitchens easy care)
- The customer's style and colour preferences

`)

	b.WriteString("**Room:**\n")
	fmt.Fprintf(&b, "- Type: %s\n", valueOr(params.RoomType, "not specified"))
	fmt.Fprintf(&b, "- Style: %s\n", valueOr(params.Style, "not specified"))
	fmt.Fprintf(&b, "- Light exposure: %s\n", params.LightExposure)
	if len(params.Colors) > 0 {
		fmt.Fprintf(&b, "- Preferred colours: %s\n", strings.Join(params.Colors, ", "))
	}
	if params.Notes != "" {
		fmt.Fprintf(&b, "\n**Notes from the customer:**\n%s\n", params.Notes)
	}

	b.WriteString("\n**Catalog:**\n")
	for _, p := range params.Catalog {
		fmt.Fprintf(&b, "- slug=%s name=%q category=%s colours=%s\n",
			p.Slug, p.Name, p.Category, strings.Join(p.Colors, "/"))
	}

	b.WriteString(`
**Response Format:**
Return your advice as a JSON object with this exact structure:

{
  "summary": "Two or three sentences of overall advice",
  "recommendations": [
    {
      "category": "blackout|sheer|linen|velvet",
      "color": "one of the product's colours",
      "product_slug": "slug from the catalog",
      "reason": "Why this fits the room"
    }
  ],
  "care_tips": ["Short care or hanging tip"]
}

**Important:** Only use slugs and colours that appear in the catalog. Return ONLY the JSON object, no additional text or explanation.`)

	return b.String()
}

func valueOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
