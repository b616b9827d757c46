package prompt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"html/template"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Drmedkit/Bouw/internal/domain"
	"github.com/Drmedkit/Bouw/internal/lead"
)

// StaticCompleter produces deterministic output without calling a provider.
// It keeps the whole pipeline usable offline and in tests.
type StaticCompleter struct {
	title cases.Caser
}

func NewStaticCompleter() *StaticCompleter {
	return &StaticCompleter{title: cases.Title(language.Und, cases.NoLower)}
}

func (s *StaticCompleter) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch req.Purpose {
	case PurposeDocument:
		return s.document(req.Messages)
	case PurposeTheme:
		return s.theme(lastUserText(req.Messages))
	default:
		return s.extract(req.Messages)
	}
}

var (
	emailPattern    = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	businessPattern = regexp.MustCompile(`\b(?i:called|named)\s+([\p{L}\p{N}][\p{L}\p{N}'&\-]*(?:\s+[\p{Lu}\p{N}][\p{L}\p{N}'&\-]*)*)`)
	namePattern     = regexp.MustCompile(`(?i)\b(?:my name is|call me)\s+([\p{L}][\p{L}'\-]*)`)
)

type keywordRule struct {
	pattern *regexp.Regexp
	value   string
}

var categoryRules = []keywordRule{
	{regexp.MustCompile(`(?i)\b(restaurant|cafe|bistro|diner|eatery|kitchen|bakery)\b`), lead.CategoryRestaurant},
	{regexp.MustCompile(`(?i)\b(nightclub|club|bar|pub|lounge|cocktail)\b`), lead.CategoryNightlife},
	{regexp.MustCompile(`(?i)\b(store|shop|webshop|boutique|e-?commerce)\b`), lead.CategoryOnlineStore},
}

var styleRules = []keywordRule{
	{regexp.MustCompile(`(?i)\b(minimal|minimalist|clean|simple)\b`), lead.StyleCleanMinimal},
	{regexp.MustCompile(`(?i)\b(elegant|warm|cozy|classy)\b`), lead.StyleWarmElegant},
	{regexp.MustCompile(`(?i)\b(dark|bold|moody)\b`), lead.StyleDarkBold},
	{regexp.MustCompile(`(?i)\b(loud|electric|neon|vibrant)\b`), lead.StyleLoudElectric},
	{regexp.MustCompile(`(?i)\b(playful|fun|colorful|colourful)\b`), lead.StylePlayfulFun},
	{regexp.MustCompile(`(?i)\b(raw|edgy|grunge|industrial)\b`), lead.StyleRawEdgy},
}

func firstRule(rules []keywordRule, text string) string {
	for _, r := range rules {
		if r.pattern.MatchString(text) {
			return r.value
		}
	}
	return ""
}

func (s *StaticCompleter) extract(messages []domain.Message) (string, error) {
	var said []string
	for _, m := range chatTurns(messages) {
		if m.Role == domain.RoleUser {
			said = append(said, m.Text)
		}
	}
	text := strings.Join(said, "\n")

	var found lead.Record
	found.Email = emailPattern.FindString(text)
	if m := businessPattern.FindStringSubmatch(text); m != nil {
		found.Business = s.title.String(strings.TrimSpace(m[1]))
	}
	if m := namePattern.FindStringSubmatch(text); m != nil {
		found.Name = s.title.String(m[1])
	}
	found.Category = firstRule(categoryRules, text)
	found.Style = firstRule(styleRules, text)

	payload := struct {
		Reply string      `json:"reply"`
		Lead  lead.Record `json:"lead"`
	}{Reply: nextQuestion(found), Lead: found}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("static: encode extraction: %w", err)
	}
	return string(data), nil
}

func nextQuestion(r lead.Record) string {
	switch {
	case r.Business == "":
		return "Tell me about your business. What's it called?"
	case r.Category == "":
		return fmt.Sprintf("Love it. What kind of place is %s: a restaurant, a bar, a shop, or something else?", r.Business)
	case r.Style == "":
		return fmt.Sprintf("What vibe should %s have? Warm and elegant, dark and bold, clean and minimal, loud, playful, or raw?", r.Business)
	case r.Email == "":
		return fmt.Sprintf("I'm putting a preview for %s together now. What's your email so I can send it over?", r.Business)
	default:
		return fmt.Sprintf("Your preview for %s is on its way. Anything else you'd like it to show?", r.Business)
	}
}

type palette struct {
	Background string
	Foreground string
	Accent     string
	Font       string
}

var stylePalettes = map[string]palette{
	lead.StyleWarmElegant:  {"#1c1410", "#f5ebe0", "#c9a227", "DM Serif Display"},
	lead.StyleDarkBold:     {"#0a0a0a", "#f0f0f0", "#e63946", "Syne"},
	lead.StyleCleanMinimal: {"#ffffff", "#111111", "#2563eb", "Familjen Grotesk"},
	lead.StyleLoudElectric: {"#0b0221", "#ffffff", "#ff2975", "Orbitron"},
	lead.StylePlayfulFun:   {"#fff7e6", "#2b2d42", "#ff7b00", "Unbounded"},
	lead.StyleRawEdgy:      {"#1a1a1a", "#e0e0e0", "#b5ff00", "Courier Prime"},
}

var staticPage = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Brief.Business}}</title>
<link rel="stylesheet" href="https://fonts.googleapis.com/css2?family={{.FontQuery}}&display=swap">
<style>
body{margin:0;background:{{.Palette.Background}};color:{{.Palette.Foreground}};font-family:'{{.Palette.Font}}',sans-serif}
.hero{position:relative;min-height:70vh;display:flex;align-items:flex-end}
.hero img{position:absolute;inset:0;width:100%;height:100%;object-fit:cover;opacity:.6}
.hero h1{position:relative;margin:0;padding:2rem;font-size:clamp(2rem,6vw,4rem)}
section{padding:3rem 2rem;max-width:960px;margin:0 auto}
section img{width:100%;border-radius:8px}
.cta a{display:inline-block;padding:1rem 2rem;background:{{.Palette.Accent}};color:{{.Palette.Background}};text-decoration:none}
</style>
</head>
<body>
<header class="hero">
<img src="{{.Brief.HeroImage}}" alt="{{.Brief.Business}}">
<h1>{{.Brief.Business}}</h1>
</header>
<section class="about">
<h2>{{.Brief.Category}}{{with .Brief.Location}} in {{.}}{{end}}</h2>
<img src="{{.Brief.FeatureImage}}" alt="">
{{with .Brief.Offerings}}<p>{{.}}</p>{{end}}
{{with .Brief.Audience}}<p>Made for {{.}}.</p>{{end}}
</section>
<section class="cta">
<a href="#contact">Get in touch with {{.Brief.Business}}</a>
</section>
</body>
</html>
`))

func (s *StaticCompleter) document(messages []domain.Message) (string, error) {
	brief, err := ParseBrief(lastUserText(messages))
	if err != nil {
		return "", fmt.Errorf("static: %w", err)
	}
	p, ok := stylePalettes[brief.Style]
	if !ok {
		p = stylePalettes[lead.StyleCleanMinimal]
	}
	var buf bytes.Buffer
	err = staticPage.Execute(&buf, map[string]any{
		"Brief":     brief,
		"Palette":   p,
		"Lang":      coalesce(brief.Language, "en"),
		"FontQuery": p.Font,
	})
	if err != nil {
		return "", fmt.Errorf("static: render page: %w", err)
	}
	return buf.String(), nil
}

var themeOverlays = []keywordRule{
	{regexp.MustCompile(`(?i)\b(retro|crt|terminal|hacker|arcade)\b`), "scanlines"},
	{regexp.MustCompile(`(?i)\b(blueprint|grid|technical|architect\w*)\b`), "grid"},
	{regexp.MustCompile(`(?i)\b(memphis|80s|eighties|playful)\b`), "memphis"},
}

var themeAccents = []string{"#ff2975", "#00d1b2", "#ffb400", "#7c3aed", "#2563eb", "#e63946"}

func (s *StaticCompleter) theme(description string) (string, error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(description)))
	sum := h.Sum32()

	words := strings.Fields(description)
	if len(words) > 3 {
		words = words[:3]
	}
	name := s.title.String(strings.Join(words, " "))
	overlay := firstRule(themeOverlays, description)
	if overlay == "" {
		overlay = "none"
	}
	p := stylePalettes[firstRule(styleRules, description)]
	if p.Background == "" {
		p = stylePalettes[lead.StyleDarkBold]
	}

	theme := map[string]any{
		"name":           coalesce(name, "Custom"),
		"bg":             p.Background,
		"fg":             p.Foreground,
		"accent":         themeAccents[int(sum%uint32(len(themeAccents)))],
		"cardBg":         "rgba(255,255,255,0.05)",
		"cardBorder":     "1px solid rgba(255,255,255,0.1)",
		"cardBlur":       false,
		"labelFont":      "Fira Code",
		"headlineFont":   p.Font,
		"headlineWeight": 700,
		"headlineSize":   "clamp(1.8rem, 5vw, 3rem)",
		"bodyFont":       "Familjen Grotesk",
		"bodyColor":      p.Foreground,
		"indicatorBg":    "rgba(255,255,255,0.1)",
		"overlay":        overlay,
	}
	data, err := json.Marshal(theme)
	if err != nil {
		return "", fmt.Errorf("static: encode theme: %w", err)
	}
	return string(data), nil
}

var _ Completer = (*StaticCompleter)(nil)
