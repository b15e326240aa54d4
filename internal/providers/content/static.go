package content

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
)

// Static writes deterministic template copy without calling any vendor.
// It backs development setups and keeps the engine usable without keys.
type Static struct{}

func NewStatic() *Static {
	return &Static{}
}

type staticPhrases struct {
	discover string
	crafted  string
	cta      string
	bullets  [3]string
}

var staticCopy = map[string]staticPhrases{
	"en": {"Discover", "is crafted for everyday use and made to last.", "Order yours today.", [3]string{"Premium materials", "Thoughtful design", "Fast delivery"}},
	"sv": {"Upptäck", "är skapad för vardagen och gjord för att hålla.", "Beställ din redan idag.", [3]string{"Förstklassiga material", "Genomtänkt design", "Snabb leverans"}},
	"es": {"Descubre", "está diseñado para el día a día y hecho para durar.", "Pide el tuyo hoy.", [3]string{"Materiales premium", "Diseño cuidado", "Entrega rápida"}},
	"no": {"Oppdag", "er laget for hverdagen og bygget for å vare.", "Bestill din i dag.", [3]string{"Førsteklasses materialer", "Gjennomtenkt design", "Rask levering"}},
	"da": {"Oplev", "er skabt til hverdagen og lavet til at holde.", "Bestil din i dag.", [3]string{"Førsteklasses materialer", "Gennemtænkt design", "Hurtig levering"}},
	"fi": {"Tutustu", "on tehty arkeen ja kestämään.", "Tilaa omasi tänään.", [3]string{"Laadukkaat materiaalit", "Harkittu muotoilu", "Nopea toimitus"}},
}

func (s *Static) Name() string { return staticProviderName }

func (s *Static) Generate(ctx context.Context, in domain.GenerationInput) (*domain.ProductCopy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	code := ResolveLanguage(in.Language)
	phrases := staticCopy[code]
	title := cases.Title(language.Make(code)).String(strings.TrimSpace(in.Title))
	keywords := normalizeKeywords(in.Keywords, strings.ToLower(title))

	body := fmt.Sprintf("%s %s. %s %s", phrases.discover, title, title, phrases.crafted)
	if len(keywords) > 0 {
		body += " " + strings.Join(keywords, ", ") + "."
	}
	body += "\n\n" + phrases.cta
	return &domain.ProductCopy{
		Headline:        fmt.Sprintf("%s %s", phrases.discover, title),
		Body:            body,
		MetaDescription: truncateRunes(fmt.Sprintf("%s %s", title, phrases.crafted), maxMetaDescription),
		FeatureBullets:  []string{phrases.bullets[0], phrases.bullets[1], phrases.bullets[2]},
		SEOKeywords:     keywords,
		Provider:        s.Name(),
	}, nil
}

var (
	_ Generator = (*Static)(nil)
	_ Generator = (*Gemini)(nil)
	_ Generator = (*OpenAI)(nil)
)
