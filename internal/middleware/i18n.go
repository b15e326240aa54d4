package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type localeContextKey struct{}
type countryContextKey struct{}

var (
	LocaleKey  = localeContextKey{}
	CountryKey = countryContextKey{}
)

// Copy languages the engine can write, in matcher preference order.
var (
	supportedCodes = []string{"en", "sv", "es", "no", "da", "fi"}
	supportedTags  = []language.Tag{
		language.English,
		language.Swedish,
		language.Spanish,
		language.Norwegian,
		language.Danish,
		language.Finnish,
	}
	matcher = language.NewMatcher(supportedTags)
)

// countryLanguages maps a visitor's country to a default copy language.
var countryLanguages = map[string]string{
	"SE": "sv",
	"AX": "sv",
	"NO": "no",
	"DK": "da",
	"FI": "fi",
	"ES": "es",
	"MX": "es",
	"AR": "es",
	"CO": "es",
	"CL": "es",
}

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// I18N stores the request locale and country in the context. The locale comes
// from X-Locale, then Accept-Language, then the country, then defaultLocale.
func I18N(defaultLocale string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := ResolveCountry(r, lookup)
			locale := detectLocale(r, defaultLocale, country)
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			if country != "" {
				ctx = context.WithValue(ctx, CountryKey, country)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func detectLocale(r *http.Request, fallback string, country string) string {
	if v := MatchLanguage(r.Header.Get("X-Locale")); v != "" {
		return v
	}
	if v := MatchLanguage(r.Header.Get("Accept-Language")); v != "" {
		return v
	}
	if v, ok := countryLanguages[strings.ToUpper(country)]; ok {
		return v
	}
	if v := MatchLanguage(fallback); v != "" {
		return v
	}
	return "en"
}

// MatchLanguage returns the supported copy language closest to an
// Accept-Language style value, or "" when nothing matches.
func MatchLanguage(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return ""
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return ""
	}
	return supportedCodes[idx]
}

// ClientIP returns the best-effort client IP address for the request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok && v != "" {
		return v
	}
	return "en"
}

// CountryFromContext returns the ISO country code stored in the request context.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CountryKey).(string); ok {
		return v
	}
	return ""
}

// ResolveCountry prefers edge-proxy country headers and falls back to lookup.
func ResolveCountry(r *http.Request, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	for _, key := range []string{"X-Country-Code", "X-IP-Country", "CF-IPCountry", "X-Appengine-Country"} {
		if val := strings.TrimSpace(r.Header.Get(key)); val != "" {
			return strings.ToUpper(val)
		}
	}
	if lookup != nil {
		if ip := ClientIP(r); ip != "" {
			if country, err := lookup(ip); err == nil && country != "" {
				return strings.ToUpper(country)
			}
		}
	}
	return ""
}
