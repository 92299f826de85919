package service

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxSlugBase     = 60
	slugAttempts    = 10
	defaultSlugBase = "form"
)

var slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)

// SlugBase turns a form name into the stem of its slug: accents stripped,
// lowercase, every other run of characters collapsed to one dash.
func SlugBase(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}
	s = slugSeparators.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugBase {
		s = s[:maxSlugBase]
	}
	return s
}

func randomSuffix() string {
	return fmt.Sprintf("%05d", rand.Intn(100000))
}

// uniqueSlug appends a five digit suffix to the name's stem until the result
// is unused, falling back to the tail of the current unix millis.
func (s *FormService) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := SlugBase(name)
	if base == "" {
		base = defaultSlugBase
	}
	for i := 0; i < slugAttempts; i++ {
		candidate := base + "-" + s.suffix()
		exists, err := s.store.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	millis := strconv.FormatInt(s.now().UnixMilli(), 10)
	return base + "-" + millis[len(millis)-5:], nil
}
