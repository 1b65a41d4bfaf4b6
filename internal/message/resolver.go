package message

import (
	_ "embed"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
	xmessage "golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"jhove2/internal/fault"
)

//go:embed catalog.toml
var defaultCatalog string

// DefaultLocale is used when a requested locale has no catalog entry.
const DefaultLocale = "en"

// Resolver turns a message code and its arguments into localized text.
type Resolver interface {
	Resolve(code string, args []any, locale string) (string, error)
}

// Catalog resolves message text from per-locale format strings. Format
// strings use fmt verbs, including explicit argument indexes.
type Catalog struct {
	builder  *catalog.Builder
	codes    map[language.Tag]map[string]struct{}
	tags     []language.Tag
	matcher  language.Matcher
	fallback language.Tag
}

// DefaultCatalog returns the catalog bundled with the binary.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(strings.NewReader(defaultCatalog))
}

// LoadCatalog reads a TOML document of the form
//
//	[en]
//	"code" = "format %s"
//
// The DefaultLocale table is required.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var raw map[string]map[string]string
	if err := toml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fault.Wrap(fault.ErrConfiguration, "message", "load catalog", "", err)
	}
	fallback := language.Make(DefaultLocale)
	if _, ok := raw[DefaultLocale]; !ok {
		return nil, fault.Wrap(fault.ErrConfiguration, "message", "load catalog",
			fmt.Sprintf("missing %q locale table", DefaultLocale), nil)
	}

	c := &Catalog{
		builder:  catalog.NewBuilder(catalog.Fallback(fallback)),
		codes:    make(map[language.Tag]map[string]struct{}, len(raw)),
		fallback: fallback,
	}
	locales := make([]string, 0, len(raw))
	for locale := range raw {
		locales = append(locales, locale)
	}
	slices.Sort(locales)
	// The fallback goes first so the matcher prefers it on weak matches.
	slices.SortStableFunc(locales, func(a, b string) int {
		switch {
		case a == DefaultLocale:
			return -1
		case b == DefaultLocale:
			return 1
		default:
			return 0
		}
	})
	for _, locale := range locales {
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fault.Wrap(fault.ErrConfiguration, "message", "load catalog",
				fmt.Sprintf("invalid locale %q", locale), err)
		}
		codes := make(map[string]struct{}, len(raw[locale]))
		for code, format := range raw[locale] {
			if err := c.builder.SetString(tag, code, format); err != nil {
				return nil, fault.Wrap(fault.ErrConfiguration, "message", "load catalog",
					fmt.Sprintf("code %q", code), err)
			}
			codes[code] = struct{}{}
		}
		c.codes[tag] = codes
		c.tags = append(c.tags, tag)
	}
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

// Resolve formats code for locale, falling back to DefaultLocale when the
// locale lacks the code. An unknown code is a configuration error.
func (c *Catalog) Resolve(code string, args []any, locale string) (string, error) {
	tag := c.match(locale)
	if !c.has(tag, code) {
		tag = c.fallback
		if !c.has(tag, code) {
			return "", fault.Wrap(fault.ErrConfiguration, "message", "resolve",
				fmt.Sprintf("no catalog entry for %q", code), nil)
		}
	}
	printer := xmessage.NewPrinter(tag, xmessage.Catalog(c.builder))
	return printer.Sprintf(code, args...), nil
}

// Codes returns every code known for the fallback locale, sorted.
func (c *Catalog) Codes() []string {
	codes := make([]string, 0, len(c.codes[c.fallback]))
	for code := range c.codes[c.fallback] {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// Locales returns the locales with catalog tables.
func (c *Catalog) Locales() []string {
	out := make([]string, 0, len(c.tags))
	for _, tag := range c.tags {
		out = append(out, tag.String())
	}
	return out
}

func (c *Catalog) match(locale string) language.Tag {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return c.fallback
	}
	requested, err := language.Parse(locale)
	if err != nil {
		return c.fallback
	}
	_, idx, confidence := c.matcher.Match(requested)
	if confidence == language.No {
		return c.fallback
	}
	return c.tags[idx]
}

func (c *Catalog) has(tag language.Tag, code string) bool {
	codes, ok := c.codes[tag]
	if !ok {
		return false
	}
	_, ok = codes[code]
	return ok
}
