package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type languageContextKey struct{}
type countryContextKey struct{}

// CountryLookup resolves an ISO country code for an IP address.
type CountryLookup func(ip string) (string, error)

// CountryLanguage maps an ISO country code to a content language, or "".
type CountryLanguage func(country string) string

// LanguageOptions configures the language resolver.
type LanguageOptions struct {
	Default    string
	Supported  []string
	Lookup     CountryLookup
	ForCountry CountryLanguage
}

// Language resolves the content language of a request: X-Language, then
// Accept-Language, then the client's country, then the default. Candidates
// are matched against the supported languages with x/text/language.
func Language(opts LanguageOptions) func(http.Handler) http.Handler {
	supported := opts.Supported
	if len(supported) == 0 {
		supported = []string{"en"}
	}
	tags := make([]language.Tag, 0, len(supported))
	for _, s := range supported {
		tags = append(tags, language.Make(s))
	}
	matcher := language.NewMatcher(tags)
	fallback := opts.Default
	if fallback == "" {
		fallback = supported[0]
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := ResolveCountry(r, opts.Lookup)
			lang := resolveLanguage(r, matcher, supported, fallback, country, opts.ForCountry)
			ctx := context.WithValue(r.Context(), languageContextKey{}, lang)
			if country != "" {
				ctx = context.WithValue(ctx, countryContextKey{}, country)
			}
			w.Header().Set("Content-Language", lang)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveLanguage(r *http.Request, matcher language.Matcher, supported []string, fallback, country string, forCountry CountryLanguage) string {
	if v := strings.TrimSpace(r.Header.Get("X-Language")); v != "" {
		if lang, ok := match(matcher, supported, v); ok {
			return lang
		}
	}
	if v := strings.TrimSpace(r.Header.Get("Accept-Language")); v != "" {
		if lang, ok := match(matcher, supported, v); ok {
			return lang
		}
	}
	if country != "" && forCountry != nil {
		if v := forCountry(country); v != "" {
			if lang, ok := match(matcher, supported, v); ok {
				return lang
			}
		}
	}
	return fallback
}

// match parses a header value (single tag or Accept-Language list) and
// returns the supported base language it matches.
func match(matcher language.Matcher, supported []string, header string) (string, bool) {
	desired, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(desired) == 0 {
		return "", false
	}
	_, idx, conf := matcher.Match(desired...)
	if conf == language.No {
		return "", false
	}
	return supported[idx], true
}

// LanguageFromContext returns the resolved language, or "" outside the middleware.
func LanguageFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(languageContextKey{}).(string); ok {
		return v
	}
	return ""
}

// CountryFromContext returns the ISO country code stored in the request context.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(countryContextKey{}).(string); ok {
		return v
	}
	return ""
}

// ResolveCountry returns a best-effort ISO country code from CDN headers or
// a GeoIP lookup of the client address.
func ResolveCountry(r *http.Request, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	for _, key := range []string{"X-Country-Code", "CF-IPCountry", "X-Appengine-Country"} {
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

// ClientIP returns the first valid X-Forwarded-For address, else the remote host.
func ClientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if ip != "" && net.ParseIP(ip) != nil {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && net.ParseIP(host) != nil {
		return host
	}
	return r.RemoteAddr
}
