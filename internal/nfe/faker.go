package nfe

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/brianvoe/gofakeit/v7"
)

// fakerFunctions maps a Replacement.Faker kind to its generator.
var fakerFunctions = map[string]func(*gofakeit.Faker) string{
	"name":      func(f *gofakeit.Faker) string { return f.Name() },
	"firstName": func(f *gofakeit.Faker) string { return f.FirstName() },
	"lastName":  func(f *gofakeit.Faker) string { return f.LastName() },
	"email":     func(f *gofakeit.Faker) string { return f.Email() },
	"company":   func(f *gofakeit.Faker) string { return strings.ToUpper(f.Company()) },
	"street":    func(f *gofakeit.Faker) string { return f.Street() },
	"city":      func(f *gofakeit.Faker) string { return f.City() },
	"phone":     func(f *gofakeit.Faker) string { return f.Phone() },
}

// FakerKinds lists the supported Replacement.Faker values, sorted.
func FakerKinds() []string {
	kinds := make([]string, 0, len(fakerFunctions))
	for k := range fakerFunctions {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// fakeSource serializes access to one gofakeit.Faker; a Mutator is shared by
// concurrent HTTP requests.
type fakeSource struct {
	mu    sync.Mutex
	faker *gofakeit.Faker
}

func newFakeSource(seed uint64) *fakeSource {
	return &fakeSource{faker: gofakeit.New(seed)}
}

func (s *fakeSource) value(kind string) (string, error) {
	gen, ok := fakerFunctions[kind]
	if !ok {
		return "", fmt.Errorf("unknown faker %q (want one of %s)", kind, strings.Join(FakerKinds(), ", "))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen(s.faker), nil
}
