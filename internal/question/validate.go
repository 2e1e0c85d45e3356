package question

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Normalize fills in missing ids and trims names. It does not check the item
// categories against the declared ones: undeclared values are tolerated and
// surface as integrity warnings instead.
func (e *Exercise) Normalize() error {
	e.Kind = KindCategorize
	if strings.TrimSpace(e.ID) == "" {
		e.ID = uuid.NewString()
	}
	seenCat := make(map[string]bool, len(e.Categories))
	for i := range e.Categories {
		name := strings.TrimSpace(e.Categories[i].Name)
		if name == "" {
			return fmt.Errorf("%w: category %d has no name", ErrInvalid, i)
		}
		if seenCat[name] {
			return fmt.Errorf("%w: duplicate category %q", ErrInvalid, name)
		}
		seenCat[name] = true
		e.Categories[i].Name = name
	}
	seenItem := make(map[string]bool, len(e.Items))
	for i := range e.Items {
		it := &e.Items[i]
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		if seenItem[it.ID] {
			return fmt.Errorf("%w: duplicate item id %q", ErrInvalid, it.ID)
		}
		seenItem[it.ID] = true
		it.Name = strings.TrimSpace(it.Name)
		it.Category = strings.TrimSpace(it.Category)
	}
	return nil
}

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_\-]+)\s*\}\}`)

// Placeholders returns the blank names referenced by text, in order.
func Placeholders(text string) []string {
	m := placeholderRe.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(m))
	for _, g := range m {
		out = append(out, g[1])
	}
	return out
}

func (c *Cloze) Normalize() error {
	c.Kind = KindCloze
	if strings.TrimSpace(c.ID) == "" {
		c.ID = uuid.NewString()
	}
	seen := make(map[string]bool, len(c.Blanks))
	for i := range c.Blanks {
		b := &c.Blanks[i]
		b.Name = strings.TrimSpace(b.Name)
		if b.Name == "" {
			return fmt.Errorf("%w: blank %d has no name", ErrInvalid, i)
		}
		if seen[b.Name] {
			return fmt.Errorf("%w: duplicate blank %q", ErrInvalid, b.Name)
		}
		seen[b.Name] = true
		switch b.Mode {
		case "":
			b.Mode = MatchFuzzy
		case MatchExact, MatchFuzzy:
		default:
			return fmt.Errorf("%w: blank %q has unknown mode %q", ErrInvalid, b.Name, b.Mode)
		}
	}
	for _, name := range Placeholders(c.Text) {
		if !seen[name] {
			return fmt.Errorf("%w: text references undeclared blank %q", ErrInvalid, name)
		}
	}
	return nil
}
