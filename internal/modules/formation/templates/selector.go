// Package templates maps party counts to a logical template path in the
// formation template library. Selection is pure: the catalog is loaded once
// and never mutated.
package templates

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/yungbote/formationvault-backend/internal/domain/formation"
)

const maxParties = 6

// Resolved counts after clamping and defaulting.
type Resolved struct {
	Primary   int `json:"primary"`
	Managers  int `json:"managers,omitempty"`
	Directors int `json:"directors,omitempty"`
	Officers  int `json:"officers,omitempty"`
}

type Template struct {
	DocumentID string   `json:"document_id"`
	Path       string   `json:"path"`
	Strategy   string   `json:"strategy"`
	Counts     Resolved `json:"counts"`
}

// Extension is the file extension of the template, which is also the
// format the rendering service returns.
func (t Template) Extension() string {
	i := strings.LastIndex(t.Path, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(t.Path[i+1:])
}

// corpStrategy is one tier of the corporation lookup; tiers are tried in order.
type corpStrategy struct {
	name string
	path func(title, doc string, r Resolved) string
	has  func(c *Catalog, doc string, r Resolved) bool
}

var corpStrategies = []corpStrategy{
	{
		name: "exact_triple",
		path: func(title, doc string, r Resolved) string {
			return fmt.Sprintf("corp/%s/%s - %s, %s, %s.docx", doc, title,
				countLabel(r.Primary, "Shareholder"),
				countLabel(r.Directors, "Director"),
				countLabel(r.Officers, "Officer"))
		},
		has: func(c *Catalog, doc string, r Resolved) bool {
			return c.hasTriple(doc, r.Primary, r.Directors, r.Officers)
		},
	},
	{
		name: "shareholder_only",
		path: func(title, doc string, r Resolved) string {
			return fmt.Sprintf("corp/%s/%s - %s.docx", doc, title, countLabel(r.Primary, "Shareholder"))
		},
		has: func(c *Catalog, doc string, r Resolved) bool {
			return c.hasShareholderOnly(doc, r.Primary)
		},
	},
}

type Selector struct {
	catalog *Catalog
}

func NewSelector(c *Catalog) *Selector {
	return &Selector{catalog: c}
}

// Select picks the template for doc given the normalized party counts.
func (s *Selector) Select(kind formation.EntityKind, doc formation.DocumentKind, counts formation.Counts) (Template, error) {
	if !doc.AppliesTo(kind) {
		return Template{}, fmt.Errorf("%s for %q: %w", doc.ID, kind, formation.ErrUnsupportedEntityKind)
	}
	title := s.catalog.title(doc.ID, doc.Name)

	if doc.Layout == formation.LayoutSingle {
		lib := s.catalog.single[doc.ID]
		p := lib.corporation
		if kind.IsLLC() {
			p = lib.llc
		}
		if p == "" {
			return Template{}, fmt.Errorf("%s for %q: %w", doc.ID, kind, formation.ErrTemplateMissing)
		}
		return Template{DocumentID: doc.ID, Path: p, Strategy: "single"}, nil
	}

	if kind.IsLLC() {
		r := ResolveLLC(counts)
		return Template{
			DocumentID: doc.ID,
			Path: fmt.Sprintf("llc/%s/%s - %s, %s.docx", doc.ID, title,
				countLabel(r.Primary, "Member"), countLabel(r.Managers, "Manager")),
			Strategy: "llc_pair",
			Counts:   r,
		}, nil
	}

	r := ResolveCorporation(counts)
	for _, st := range corpStrategies {
		if st.has(s.catalog, doc.ID, r) {
			return Template{
				DocumentID: doc.ID,
				Path:       st.path(title, doc.ID, r),
				Strategy:   st.name,
				Counts:     r,
			}, nil
		}
	}
	return Template{}, fmt.Errorf("%s shareholders=%d directors=%d officers=%d: %w",
		doc.ID, r.Primary, r.Directors, r.Officers, formation.ErrTemplateMissing)
}

// ResolveLLC clamps members to [1,6] and managers to [0,6]. Records with no
// count fields at all default both to 1.
func ResolveLLC(c formation.Counts) Resolved {
	if !c.Declared {
		return Resolved{Primary: 1, Managers: 1}
	}
	return Resolved{Primary: clamp(c.Members, 1), Managers: clamp(c.Managers, 0)}
}

func ResolveCorporation(c formation.Counts) Resolved {
	if !c.Declared {
		return Resolved{Primary: 1, Directors: 1, Officers: 1}
	}
	return Resolved{
		Primary:   clamp(c.Shareholders, 1),
		Directors: clamp(c.Directors, 0),
		Officers:  clamp(c.Officers, 0),
	}
}

func clamp(n, min int) int {
	if n < min {
		return min
	}
	if n > maxParties {
		return maxParties
	}
	return n
}

// countLabel renders "1 Member", "0 Manager" and "3 Members". Zero reads singular
// in the library's file names.
func countLabel(n int, noun string) string {
	if n <= 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// ResolveURL joins a logical template path onto the template host, escaping
// each segment.
func ResolveURL(base, logicalPath string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	parts := strings.Split(strings.TrimLeft(logicalPath, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return base + "/" + strings.Join(parts, "/")
}
