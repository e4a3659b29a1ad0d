package formation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestParseEntityKind(t *testing.T) {
	cases := map[string]EntityKind{
		"LLC":           EntityLLC,
		" l.l.c. ":      EntityLLC,
		"C-Corp":        EntityCCorp,
		"C Corporation": EntityCCorp,
		"s corp":        EntitySCorp,
		"S-Corporation": EntitySCorp,
		"partnership":   "",
		"":              "",
	}
	for raw, want := range cases {
		if got := ParseEntityKind(raw); got != want {
			t.Fatalf("ParseEntityKind(%q): want=%q got=%q", raw, want, got)
		}
	}
}

func TestFieldsAccessorsDegrade(t *testing.T) {
	f := Fields{
		"Owner Count":         "3",
		"Owner 1 Ownership %": "60%",
		"Owner 2 Ownership %": json.Number("0.4"),
		"Owner 3 Ownership %": "n/a",
		"Linked":              []any{"rec123"},
		"Blank":               "   ",
	}
	if n, ok := f.Int("Owner Count"); !ok || n != 3 {
		t.Fatalf("Int: want=3 got=%d ok=%v", n, ok)
	}
	if v, ok := f.Float("Owner 1 Ownership %"); !ok || v != 60 {
		t.Fatalf("Float percent string: got=%v ok=%v", v, ok)
	}
	if v, ok := f.Float("Owner 2 Ownership %"); !ok || v != 0.4 {
		t.Fatalf("Float json.Number: got=%v ok=%v", v, ok)
	}
	if _, ok := f.Float("Owner 3 Ownership %"); ok {
		t.Fatalf("Float garbage: expected ok=false")
	}
	if got := f.String("Linked"); got != "rec123" {
		t.Fatalf("String linked: got=%q", got)
	}
	if f.Has("Blank") || f.Has("Missing") {
		t.Fatalf("Has: blank and missing fields must report false")
	}
	var nilFields Fields
	if nilFields.String("x") != "" {
		t.Fatalf("nil Fields must read as empty")
	}
}

func TestFieldsFloatRejectsNonFinite(t *testing.T) {
	f := Fields{
		"nan":    "NaN",
		"inf":    "Inf",
		"neg":    "-Infinity",
		"pct":    "+inf%",
		"number": json.Number("NaN"),
		"float":  math.Inf(1),
		"list":   []any{math.NaN()},
		"finite": "1e3",
	}
	for _, key := range []string{"nan", "inf", "neg", "pct", "number", "float", "list"} {
		if v, ok := f.Float(key); ok || v != 0 {
			t.Fatalf("Float(%q): want=0,false got=%v,%v", key, v, ok)
		}
		if _, ok := f.Int(key); ok {
			t.Fatalf("Int(%q): expected ok=false", key)
		}
	}
	if v, ok := f.Float("finite"); !ok || v != 1000 {
		t.Fatalf("Float finite: want=1000 got=%v ok=%v", v, ok)
	}
}

func TestNewSourceRecordDefaults(t *testing.T) {
	rec := NewSourceRecord("rec1", Fields{
		FieldCompanyName: " Acme Holdings ",
		FieldEntityType:  "llc",
	})
	if rec.CompanyName != "Acme Holdings" || rec.EntityKind != EntityLLC {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.CompanyID != "rec1" {
		t.Fatalf("CompanyID should default to the record id, got=%q", rec.CompanyID)
	}
	if rec.VaultPath != "" {
		t.Fatalf("VaultPath should be empty when absent, got=%q", rec.VaultPath)
	}
}

func TestDocumentKindsFor(t *testing.T) {
	llc := DocumentKindsFor(EntityLLC)
	for _, d := range llc {
		if d.Scope == ScopeCorporation {
			t.Fatalf("LLC received corporation document %q", d.ID)
		}
	}
	corp := DocumentKindsFor(EntitySCorp)
	for _, d := range corp {
		if d.Scope == ScopeLLC {
			t.Fatalf("S-Corp received LLC document %q", d.ID)
		}
	}
	if len(DocumentKindsFor("")) != 0 {
		t.Fatalf("unknown entity kinds get no documents")
	}

	reg, ok := LookupDocumentKind("Membership-Registry")
	if !ok {
		t.Fatalf("LookupDocumentKind: expected membership-registry")
	}
	if reg.FileTitle() != "Membership-Registry" || reg.Kind.Segment() != "formation" {
		t.Fatalf("unexpected registry metadata: %+v", reg)
	}
	if reg.AppliesTo(EntityCCorp) {
		t.Fatalf("membership registry must not apply to corporations")
	}
}

func TestErrorClassification(t *testing.T) {
	wrapped := fmt.Errorf("select: %w", ErrTemplateMissing)
	if !IsValidationError(wrapped) {
		t.Fatalf("template missing is validation-class")
	}
	rerr := fmt.Errorf("render: %w", &RenderingServiceError{Status: 503, Body: "down"})
	if !IsRenderingError(rerr) || IsValidationError(rerr) {
		t.Fatalf("rendering errors must classify as rendering-class only")
	}
	timeout := &RenderingServiceError{Err: errors.New("context deadline exceeded")}
	if timeout.Error() != "rendering service error: context deadline exceeded" {
		t.Fatalf("unexpected timeout message: %q", timeout.Error())
	}
}
