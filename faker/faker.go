// Package faker provides realistic values for fixture fields.
//
// A Provider maps a value category, like "name" or "email", to a generator
// of plausible values. The default provider is backed by gofakeit; JSON
// fields with a Go type are filled by go-faker.
package faker

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/go-faker/faker/v4"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Value categories.
const (
	Name        = "name"
	FirstName   = "first_name"
	LastName    = "last_name"
	Username    = "username"
	Email       = "email"
	City        = "city"
	Country     = "country"
	Street      = "street"
	Company     = "company"
	Phone       = "phone"
	URL         = "url"
	Hostname    = "hostname"
	IPv4        = "ipv4"
	UUID        = "uuid"
	Lorem       = "lorem"
	Text        = "text"
	Sentence    = "sentence"
	Word        = "word"
	Title       = "title"
	Latitude    = "latitude"
	Longitude   = "longitude"
	Coordinates = "coordinates"
	Numerify    = "numerify"
	Bool        = "bool"
	Number      = "number"
	Date        = "date"
)

// Params tune a category. Zero values select the category defaults.
type Params struct {
	Length  int    // exact length of lorem text.
	Host    string // host of e-mail addresses.
	Locale  string // BCP 47 tag used for casing.
	Pattern string // numerify pattern, '#' is replaced by a digit.
}

// ErrUnknownCategory is returned for categories a provider does not know.
var ErrUnknownCategory = errors.New("faker: unknown category")

// Provider is the corpus of realistic values.
type Provider interface {
	// Generator returns a function producing values of the category.
	Generator(category string, p Params) (func() any, error)
}

type generator func(f *gofakeit.Faker, p Params) any

var aliases = map[string]string{
	"firstname":    FirstName,
	"lastname":     LastName,
	"full_name":    Name,
	"login":        Username,
	"mail":         Email,
	"phone_number": Phone,
	"link":         URL,
	"website":      URL,
	"domain":       Hostname,
	"ip":           IPv4,
	"ip4":          IPv4,
	"address":      Street,
	"description":  Text,
	"body":         Text,
	"lat":          Latitude,
	"lng":          Longitude,
	"lon":          Longitude,
	"geo":          Coordinates,
}

var generators = map[string]generator{
	Name:      func(f *gofakeit.Faker, _ Params) any { return f.Name() },
	FirstName: func(f *gofakeit.Faker, _ Params) any { return f.FirstName() },
	LastName:  func(f *gofakeit.Faker, _ Params) any { return f.LastName() },
	Username:  func(f *gofakeit.Faker, _ Params) any { return f.Username() },
	Email:     email,
	City:      func(f *gofakeit.Faker, _ Params) any { return f.City() },
	Country:   func(f *gofakeit.Faker, _ Params) any { return f.Country() },
	Street:    func(f *gofakeit.Faker, _ Params) any { return f.Street() },
	Company:   func(f *gofakeit.Faker, _ Params) any { return f.Company() },
	Phone:     func(f *gofakeit.Faker, _ Params) any { return f.Numerify("###-###-####") },
	URL:       func(f *gofakeit.Faker, _ Params) any { return f.URL() },
	Hostname:  func(f *gofakeit.Faker, _ Params) any { return f.DomainName() },
	IPv4:      func(f *gofakeit.Faker, _ Params) any { return f.IPv4Address() },
	UUID:      func(f *gofakeit.Faker, _ Params) any { return f.UUID() },
	Lorem:     lorem,
	Text: func(f *gofakeit.Faker, p Params) any {
		if p.Length > 0 {
			return lorem(f, p)
		}
		return f.Paragraph(1, 3, 8, " ")
	},
	Sentence:    func(f *gofakeit.Faker, _ Params) any { return f.Sentence(6) },
	Word:        func(f *gofakeit.Faker, _ Params) any { return f.Word() },
	Title:       title,
	Latitude:    func(f *gofakeit.Faker, _ Params) any { return f.Latitude() },
	Longitude:   func(f *gofakeit.Faker, _ Params) any { return f.Longitude() },
	Coordinates: func(f *gofakeit.Faker, _ Params) any { return [2]float64{f.Latitude(), f.Longitude()} },
	Numerify: func(f *gofakeit.Faker, p Params) any {
		if p.Pattern == "" {
			p.Pattern = "######"
		}
		return f.Numerify(p.Pattern)
	},
	Bool:   func(f *gofakeit.Faker, _ Params) any { return f.Bool() },
	Number: func(f *gofakeit.Faker, _ Params) any { return f.Number(0, 10000) },
	Date:   func(f *gofakeit.Faker, _ Params) any { return f.Date() },
}

// Canonical returns the category name an alias stands for, and whether the
// category is known.
func Canonical(category string) (string, bool) {
	category = strings.ToLower(strings.TrimSpace(category))
	if c, ok := aliases[category]; ok {
		category = c
	}
	_, ok := generators[category]
	return category, ok
}

// Gofakeit is a Provider backed by gofakeit. It is safe for concurrent use.
type Gofakeit struct {
	f *gofakeit.Faker
}

// New returns a gofakeit provider. A zero seed picks a random one.
func New(seed int64) *Gofakeit {
	return &Gofakeit{f: gofakeit.New(seed)}
}

// Generator implements Provider.
func (g *Gofakeit) Generator(category string, p Params) (func() any, error) {
	c, ok := Canonical(category)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownCategory, category)
	}
	gen := generators[c]
	return func() any { return gen(g.f, p) }, nil
}

func email(f *gofakeit.Faker, p Params) any {
	if p.Host == "" {
		return f.Email()
	}
	host := p.Host
	if !strings.Contains(host, ".") {
		host += ".com"
	}
	return strings.ToLower(f.Username()) + "@" + host
}

// lorem returns lorem ipsum text, cut to the exact length when one is given.
func lorem(f *gofakeit.Faker, p Params) any {
	if p.Length <= 0 {
		return f.LoremIpsumSentence(8)
	}
	var b strings.Builder
	for b.Len() < p.Length {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(f.LoremIpsumSentence(8))
	}
	s := []byte(b.String()[:p.Length])
	if s[len(s)-1] == ' ' {
		s[len(s)-1] = '.'
	}
	return string(s)
}

func title(f *gofakeit.Faker, p Params) any {
	tag := language.English
	if p.Locale != "" {
		tag = language.Make(p.Locale)
	}
	words := []string{f.LoremIpsumWord(), f.LoremIpsumWord(), f.LoremIpsumWord()}
	return cases.Title(tag).String(strings.Join(words, " "))
}

func init() {
	// FakeData fails on structs with interface fields unless told to skip them.
	faker.SetIgnoreInterface(true)
	if err := faker.SetRandomMapAndSliceMaxSize(3); err != nil {
		panic(err)
	}
}

// Value returns a random value of the given Go type, filled by go-faker.
func Value(t reflect.Type) (any, error) {
	if t == nil {
		return nil, errors.New("faker: missing type")
	}
	ptr := reflect.New(t)
	if err := faker.FakeData(ptr.Interface()); err != nil {
		return nil, fmt.Errorf("faker: fake %s: %w", t, err)
	}
	return ptr.Elem().Interface(), nil
}
