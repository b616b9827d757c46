package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Drmedkit/Bouw/internal/catalog"
	"github.com/Drmedkit/Bouw/internal/domain"
	"github.com/Drmedkit/Bouw/internal/lead"
)

const chatInstructions = `You are the assistant on a web designer's portfolio site. You help visitors picture what a website for their business could look like. You are friendly, professional and enthusiastic about web design.

Have a natural conversation that gradually learns about the visitor's business. React to their answers, make suggestions, and never fire a list of questions at them. Collect:
- their name
- their email, so the designer can follow up and send them the preview
- the business name
- the type of business: %s
- the vibe they want: %s
- anything useful for the page: location, what they offer, who their customers are

A preview page is built automatically in the background once the business name, type and vibe are known. When that happens, tell them it is on its way and ask for their email so they can receive it.

Respond ONLY with a JSON object of this shape, no markdown and no code fences:
{"reply": "your conversational message", "lead": {%s}}
Every lead value is a string. Use an empty string for anything you do not know yet. "type" and "vibe" MUST be one of the listed values or an empty string.`

const documentInstructions = `You are a senior web designer. Write a COMPLETE standalone HTML page, from <!DOCTYPE html> through </html>, previewing a website for the business described in the brief.

The page must:
- be fully self-contained with inline CSS
- load its fonts from Google Fonts
- open with a hero section whose background is hero_image, used exactly as given
- include a section about the business illustrated with feature_image, used exactly as given
- have sections for services or offerings and a call-to-action section
- be mobile responsive
- match the requested vibe and use the real business name throughout
- look professional and polished

Respond with the HTML only. No explanation before or after it.`

const themeInstructions = `You are a web design expert. Generate a CSS style theme as a JSON object based on the user's description.

REQUIRED fields (include ALL of them):
{
  "name": "short creative theme name",
  "bg": "background, a hex like #0a0a0a or a CSS gradient",
  "fg": "foreground text color as hex",
  "accent": "accent color as hex",
  "cardBg": "card background as hex, rgba or 'transparent'",
  "cardBorder": "CSS border like '1px solid rgba(255,255,255,0.1)' or 'none'",
  "cardBlur": false,
  "labelFont": "a font from the allowed list",
  "headlineFont": "a font from the allowed list",
  "headlineWeight": 700,
  "headlineSize": "clamp(1.8rem, 5vw, 3rem)",
  "bodyFont": "a font from the allowed list",
  "bodyColor": "body text color as hex or rgba",
  "indicatorBg": "toast indicator background color",
  "overlay": "one of the allowed overlays"
}

OPTIONAL fields, only when they fit the mood: "cardShadow", "cardGlow", "cardBorderLeft", "cardBorderTop", "headlineGradient", "indicatorFg", "textAlign" ('center' for zen or minimal moods).

ALLOWED FONTS: %s
ALLOWED OVERLAYS: %s

Respond with ONLY the raw JSON object. No explanation, no markdown, no code fences.`

// ChatInstructions builds the system prompt for the extraction turn. Known
// facts are listed so the model does not ask for them again.
func ChatInstructions(prior lead.Record, visitor domain.VisitorContext) string {
	keys := make([]string, 0, len(lead.Fields))
	for _, f := range lead.Fields {
		keys = append(keys, fmt.Sprintf("%q: \"\"", f))
	}
	var b strings.Builder
	fmt.Fprintf(&b, chatInstructions,
		quoteJoin(lead.Categories),
		quoteJoin(lead.Styles),
		strings.Join(keys, ", "),
	)

	if !prior.IsZero() {
		b.WriteString("\n\nAlready known (do not ask again, repeat these values in \"lead\"):")
		for _, f := range lead.Fields {
			if v := prior.Get(f); v != "" {
				fmt.Fprintf(&b, "\n- %s: %s", f, v)
			}
		}
	}
	if hints := visitorHints(visitor); hints != "" {
		b.WriteString("\n\nVisitor context:")
		b.WriteString(hints)
	}
	return b.String()
}

func visitorHints(v domain.VisitorContext) string {
	var b strings.Builder
	add := func(label, value string) {
		if value = strings.TrimSpace(value); value != "" {
			fmt.Fprintf(&b, "\n- %s: %s", label, value)
		}
	}
	add("arrived from", v.EntryPoint)
	add("currently viewing theme", v.Theme)
	add("stated intent", v.Intent)
	add("device", v.Device)
	add("language", v.Locale)
	add("country", v.Country)
	return b.String()
}

func quoteJoin(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}

// DocumentInstructions is the system prompt for page authoring.
func DocumentInstructions() string {
	return documentInstructions
}

// ThemeInstructions is the system prompt for the theme designer.
func ThemeInstructions(c *catalog.Catalog) string {
	return fmt.Sprintf(themeInstructions, strings.Join(c.Theme.Fonts, ", "), strings.Join(c.Theme.Overlays, ", "))
}

// Brief is the structured description a page is written from.
type Brief struct {
	Business     string `json:"business"`
	Category     string `json:"type"`
	Style        string `json:"vibe"`
	Location     string `json:"location,omitempty"`
	Offerings    string `json:"offerings,omitempty"`
	Audience     string `json:"audience,omitempty"`
	Notes        string `json:"notes,omitempty"`
	Contact      string `json:"contact_name,omitempty"`
	Language     string `json:"language,omitempty"`
	HeroImage    string `json:"hero_image"`
	FeatureImage string `json:"feature_image"`
}

// NewBrief builds the brief for record, pointing image slots at the catalog's
// placeholder images so generated assets can be injected afterwards.
func NewBrief(record lead.Record, visitor domain.VisitorContext, c *catalog.Catalog) Brief {
	return Brief{
		Business:     record.Business,
		Category:     record.Category,
		Style:        record.Style,
		Location:     record.Location,
		Offerings:    record.Offerings,
		Audience:     record.Audience,
		Notes:        record.Notes,
		Contact:      record.Name,
		Language:     visitor.Locale,
		HeroImage:    c.Placeholder(record.Category),
		FeatureImage: c.Document.FeaturePlaceholder,
	}
}

// String renders the brief as the JSON user message.
func (b Brief) String() string {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return b.Business
	}
	return string(data)
}

// ParseBrief decodes a brief rendered by String.
func ParseBrief(text string) (Brief, error) {
	var b Brief
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &b); err != nil {
		return Brief{}, fmt.Errorf("parse brief: %w", err)
	}
	return b, nil
}
