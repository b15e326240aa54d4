package content

import (
	"fmt"
	"strings"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
)

// DefaultLanguage is used when a request names none or an unknown one.
const DefaultLanguage = "en"

// Languages maps supported copy languages to the name given to the model.
var Languages = map[string]string{
	"en": "English",
	"sv": "Swedish (Svenska)",
	"es": "Spanish (Español)",
	"no": "Norwegian (Norsk)",
	"da": "Danish (Dansk)",
	"fi": "Finnish (Suomi)",
}

var tones = map[string]string{
	"professional":  "Strictly professional and informative.",
	"friendly":      "Warm, engaging, and approachable.",
	"luxury":        "Elegant, sophisticated, and aspirational.",
	"playful":       "Fun, witty, and humorous.",
	"adventurous":   "Exciting, bold, and action-oriented.",
	"witty":         "Clever, intelligent, and humorous.",
	"inspirational": "Uplifting, motivational, and positive.",
	"technical":     "Precise, data-driven, and expert.",
	"minimalist":    "Simple, clean, and direct.",
	"urgent":        "Uses scarcity and urgency to drive action.",
}

var audiences = map[string]string{
	"gen-z":               "Gen Z (uses slang, emojis, and is very direct).",
	"millennials":         "Millennials (relatable, authentic, and value-driven).",
	"gen-x":               "Gen X (straightforward, practical, and no-nonsense).",
	"boomers":             "Boomers (clear, trustworthy, and benefit-focused).",
	"luxury-shoppers":     "Luxury Shoppers (emphasizes quality, exclusivity, and status).",
	"parents":             "Parents (focuses on safety, convenience, and family benefits).",
	"tech-enthusiasts":    "Tech Enthusiasts (loves specs, innovation, and cutting-edge features).",
	"budget-shoppers":     "Budget Shoppers (focuses on value, deals, and affordability).",
	"eco-conscious":       "Eco-conscious Consumers (highlights sustainability, materials, and impact).",
	"fitness-enthusiasts": "Fitness Enthusiasts (focuses on performance, results, and health benefits).",
	"gamers":              "Gamers (uses gaming lingo, focuses on performance and aesthetics).",
}

// ResolveLanguage normalizes a language code, defaulting to English.
func ResolveLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	if code == "nb" || code == "nn" {
		code = "no"
	}
	if _, ok := Languages[code]; ok {
		return code
	}
	return DefaultLanguage
}

func describe(table map[string]string, key, fallback string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return fallback
	}
	if d, ok := table[key]; ok {
		return d
	}
	return key
}

// BuildPrompt renders the copywriting instruction sent alongside the photo.
func BuildPrompt(in domain.GenerationInput) string {
	lang := Languages[ResolveLanguage(in.Language)]
	sb := &strings.Builder{}
	sb.WriteString("You are an expert e-commerce copywriter and SEO specialist following Google's E-E-A-T guidelines. Write helpful, reliable, people-first content structured for search.\n")
	sb.WriteString("Analyze the product photo. Read any text visible on the product, packaging or label and use it as context.\n")
	fmt.Fprintf(sb, "Product title: %q.\n", strings.TrimSpace(in.Title))
	if kws := normalizeKeywords(in.Keywords, ""); len(kws) > 0 {
		fmt.Fprintf(sb, "User keywords: %s.\n", strings.Join(kws, ", "))
	}
	fmt.Fprintf(sb, "Output language: write everything in %s.\n", lang)
	fmt.Fprintf(sb, "Tone: %s\n", describe(tones, in.Tone, tones["professional"]))
	fmt.Fprintf(sb, "Target audience: %s\n", describe(audiences, in.Audience, "general online shoppers."))
	if voice := strings.TrimSpace(in.BrandVoice); voice != "" {
		fmt.Fprintf(sb, "Brand voice: %q\n", voice)
	}
	sb.WriteString("Return only a JSON object with: headline (max 12 words), body (2-3 paragraphs ending with a call to action), meta_description (under 160 characters), feature_bullets (3-5 items), seo_keywords (5-7 items mixing short and long tail).")
	return sb.String()
}
