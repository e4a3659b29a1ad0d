package templates

import (
	"errors"
	"testing"

	"github.com/yungbote/formationvault-backend/internal/domain/formation"
)

func testSelector(t *testing.T) *Selector {
	t.Helper()
	c, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	return NewSelector(c)
}

func mustKind(t *testing.T, id string) formation.DocumentKind {
	t.Helper()
	d, ok := formation.LookupDocumentKind(id)
	if !ok {
		t.Fatalf("unknown document kind %q", id)
	}
	return d
}

func TestSelect_LLCSingleMemberNoManager(t *testing.T) {
	s := testSelector(t)
	tpl, err := s.Select(formation.EntityLLC, mustKind(t, "membership-registry"), formation.Counts{Members: 1, Managers: 0, Declared: true})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	want := "llc/membership-registry/Membership Registry - 1 Member, 0 Manager.docx"
	if tpl.Path != want {
		t.Fatalf("path: want=%q got=%q", want, tpl.Path)
	}
	if tpl.Extension() != "docx" {
		t.Fatalf("extension: got=%q", tpl.Extension())
	}
}

func TestSelect_LLCIsPure(t *testing.T) {
	s := testSelector(t)
	counts := formation.Counts{Members: 3, Managers: 2, Declared: true}
	first, err := s.Select(formation.EntityLLC, mustKind(t, "operating-agreement"), counts)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _ := s.Select(formation.EntityLLC, mustKind(t, "operating-agreement"), counts)
		if again.Path != first.Path {
			t.Fatalf("selection changed between calls: %q vs %q", first.Path, again.Path)
		}
	}
	want := "llc/operating-agreement/Operating Agreement - 3 Members, 2 Managers.docx"
	if first.Path != want {
		t.Fatalf("path: want=%q got=%q", want, first.Path)
	}
}

func TestSelect_ClampsOutOfRangeCounts(t *testing.T) {
	s := testSelector(t)
	doc := mustKind(t, "board-resolution")
	seven, err := s.Select(formation.EntityCCorp, doc, formation.Counts{Shareholders: 7, Directors: 2, Officers: 2, Declared: true})
	if err != nil {
		t.Fatalf("Select(7): %v", err)
	}
	six, err := s.Select(formation.EntityCCorp, doc, formation.Counts{Shareholders: 6, Directors: 2, Officers: 2, Declared: true})
	if err != nil {
		t.Fatalf("Select(6): %v", err)
	}
	if seven != six {
		t.Fatalf("7 shareholders must behave like 6: %+v vs %+v", seven, six)
	}

	llc, _ := s.Select(formation.EntityLLC, mustKind(t, "membership-registry"), formation.Counts{Members: 0, Managers: 9, Declared: true})
	if llc.Counts.Primary != 1 || llc.Counts.Managers != 6 {
		t.Fatalf("unexpected clamped LLC counts: %+v", llc.Counts)
	}
}

func TestSelect_CorporationFallsBackToShareholderOnly(t *testing.T) {
	s := testSelector(t)
	doc := mustKind(t, "board-resolution")

	exact, err := s.Select(formation.EntitySCorp, doc, formation.Counts{Shareholders: 2, Directors: 1, Officers: 1, Declared: true})
	if err != nil {
		t.Fatalf("Select exact: %v", err)
	}
	if exact.Strategy != "exact_triple" {
		t.Fatalf("strategy: want=exact_triple got=%q", exact.Strategy)
	}
	if exact.Path != "corp/board-resolution/Board Resolution - 2 Shareholders, 1 Director, 1 Officer.docx" {
		t.Fatalf("unexpected exact path: %q", exact.Path)
	}

	fb, err := s.Select(formation.EntitySCorp, doc, formation.Counts{Shareholders: 5, Directors: 6, Officers: 6, Declared: true})
	if err != nil {
		t.Fatalf("Select fallback: %v", err)
	}
	if fb.Strategy != "shareholder_only" || fb.Path != "corp/board-resolution/Board Resolution - 5 Shareholders.docx" {
		t.Fatalf("unexpected fallback: %+v", fb)
	}
}

func TestSelect_TemplateMissing(t *testing.T) {
	c, err := ParseCatalog([]byte(`
catalog: formation_templates
version: 1
corporation:
  bylaws:
    title: Bylaws
    triples:
      - shareholders: [1]
        directors: [1]
        officers: [1]
`))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	_, err = NewSelector(c).Select(formation.EntityCCorp, mustKind(t, "bylaws"), formation.Counts{Shareholders: 4, Directors: 1, Officers: 1, Declared: true})
	if !errors.Is(err, formation.ErrTemplateMissing) {
		t.Fatalf("want ErrTemplateMissing, got=%v", err)
	}
}

func TestSelect_UndeclaredCountsDefaultToOne(t *testing.T) {
	s := testSelector(t)
	tpl, err := s.Select(formation.EntityLLC, mustKind(t, "organizational-resolution"), formation.Counts{})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if tpl.Counts.Primary != 1 || tpl.Counts.Managers != 1 {
		t.Fatalf("undeclared counts must default to 1/1, got=%+v", tpl.Counts)
	}
}

func TestSelect_RejectsWrongEntityKind(t *testing.T) {
	s := testSelector(t)
	_, err := s.Select(formation.EntityCCorp, mustKind(t, "membership-registry"), formation.Counts{Declared: true})
	if !errors.Is(err, formation.ErrUnsupportedEntityKind) {
		t.Fatalf("want ErrUnsupportedEntityKind, got=%v", err)
	}
}

func TestSelect_SingleLayout(t *testing.T) {
	s := testSelector(t)
	doc := mustKind(t, "ss4-application")
	llc, err := s.Select(formation.EntityLLC, doc, formation.Counts{})
	if err != nil {
		t.Fatalf("Select llc: %v", err)
	}
	corp, err := s.Select(formation.EntityCCorp, doc, formation.Counts{})
	if err != nil {
		t.Fatalf("Select corp: %v", err)
	}
	if llc.Path == corp.Path || llc.Extension() != "pdf" {
		t.Fatalf("unexpected single templates: %q %q", llc.Path, corp.Path)
	}
}

func TestParseCatalog_Rejects(t *testing.T) {
	cases := map[string]string{
		"wrong name":  "catalog: other\nllc:\n  a:\n    title: A\n",
		"empty":       "catalog: formation_templates\n",
		"empty block": "catalog: formation_templates\ncorporation:\n  b:\n    triples:\n      - shareholders: [1]\n",
	}
	for name, doc := range cases {
		if _, err := ParseCatalog([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestResolveURL(t *testing.T) {
	got := ResolveURL("https://templates.example.com/lib/", "llc/membership-registry/Membership Registry - 1 Member, 0 Manager.docx")
	want := "https://templates.example.com/lib/llc/membership-registry/Membership%20Registry%20-%201%20Member%2C%200%20Manager.docx"
	if got != want {
		t.Fatalf("ResolveURL: want=%q got=%q", want, got)
	}
}
