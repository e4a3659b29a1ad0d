package parties

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/yungbote/formationvault-backend/internal/domain/formation"
)

func llcRecord(fields formation.Fields) *formation.SourceRecord {
	fields[formation.FieldEntityType] = "LLC"
	return formation.NewSourceRecord("rec1", fields)
}

func TestNormalize_ClampsDeclaredCount(t *testing.T) {
	for c := 0; c <= 10; c++ {
		fields := formation.Fields{"Owner Count": c}
		for i := 1; i <= 10; i++ {
			fields[fmt.Sprintf("Owner %d Name", i)] = fmt.Sprintf("Owner %d", i)
		}
		res := Normalize(llcRecord(fields), formation.EntityLLC)
		want := c
		if want > MaxSlots {
			want = MaxSlots
		}
		if len(res.Members) != want {
			t.Fatalf("count=%d: want=%d members got=%d", c, want, len(res.Members))
		}
		for _, m := range res.Members {
			if m.Name == "Owner 7" || m.Name == "Owner 8" {
				t.Fatalf("count=%d: slot beyond 6 leaked: %q", c, m.Name)
			}
		}
	}
}

func TestNormalize_NegativeCountClampsToZero(t *testing.T) {
	res := Normalize(llcRecord(formation.Fields{"Owner Count": -2, "Owner 1 Name": "A"}), formation.EntityLLC)
	if len(res.Members) != 0 {
		t.Fatalf("expected no members, got=%d", len(res.Members))
	}
}

func TestNormalize_SkipsBlankSlotsWithoutShifting(t *testing.T) {
	res := Normalize(llcRecord(formation.Fields{
		"Owner Count":         3,
		"Owner 1 Name":        "Ann",
		"Owner 1 Ownership %": 50,
		"Owner 2 Name":        "   ",
		"Owner 2 Ownership %": 25,
		"Owner 3 Name":        " Cal ",
		"Owner 3 Address":     " 1 Main St ",
		"Owner 3 Ownership %": 50,
		"Managers Count":      "2",
		"Manager 1 Name":      "",
		"Manager 2 Name":      "Mia",
		"Manager 2 Address":   "2 Elm",
	}), formation.EntityLLC)

	if len(res.Members) != 2 {
		t.Fatalf("members: want=2 got=%d", len(res.Members))
	}
	if res.Members[1].Name != "Cal" || res.Members[1].Address != "1 Main St" {
		t.Fatalf("unexpected second member: %+v", res.Members[1])
	}
	if len(res.Managers) != 1 || res.Managers[0].Name != "Mia" {
		t.Fatalf("unexpected managers: %+v", res.Managers)
	}
	if res.Counts.Members != 2 || res.Counts.Managers != 1 || !res.Counts.Declared {
		t.Fatalf("unexpected counts: %+v", res.Counts)
	}
}

func TestNormalizeOwnership(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{-5, 0},
		{0.25, 25},
		{0.6, 60},
		{1, 1},
		{60, 60},
		{100, 100},
		// Ambiguous: a genuine half-percent owner reads as 50%.
		{0.5, 50},
		{math.NaN(), 0},
		{math.Inf(1), 0},
		{math.Inf(-1), 0},
	}
	for _, tc := range cases {
		if got := NormalizeOwnership(tc.in); got != tc.want {
			t.Fatalf("NormalizeOwnership(%v): want=%v got=%v", tc.in, tc.want, got)
		}
	}
}

func TestNormalize_SoleOwnerFractionIsFullOwnership(t *testing.T) {
	res := Normalize(llcRecord(formation.Fields{
		"Owner Count":         1,
		"Owner 1 Name":        "Jane Doe",
		"Owner 1 Ownership %": 1.0,
		"Managers Count":      0,
	}), formation.EntityLLC)
	if len(res.Members) != 1 {
		t.Fatalf("members: want=1 got=%d", len(res.Members))
	}
	if m := res.Members[0]; m.Name != "Jane Doe" || m.OwnershipPercent != 100 {
		t.Fatalf("unexpected member: %+v", m)
	}
}

func TestNormalize_OnePercentOwnerAlongsideOthersStaysOnePercent(t *testing.T) {
	res := Normalize(llcRecord(formation.Fields{
		"Owner Count":         2,
		"Owner 1 Name":        "Small",
		"Owner 1 Ownership %": 1,
		"Owner 2 Name":        "Big",
		"Owner 2 Ownership %": 99,
	}), formation.EntityLLC)
	if res.Members[0].Name != "Big" || res.Members[1].OwnershipPercent != 1 {
		t.Fatalf("unexpected members: %+v", res.Members)
	}
}

func TestNormalize_SortsMembersByOwnershipDescending(t *testing.T) {
	res := Normalize(llcRecord(formation.Fields{
		"Owner Count":         2,
		"Owner 1 Name":        "Minor",
		"Owner 1 Ownership %": "40",
		"Owner 2 Name":        "Major",
		"Owner 2 Ownership %": "60%",
	}), formation.EntityLLC)
	if len(res.Members) != 2 {
		t.Fatalf("members: want=2 got=%d", len(res.Members))
	}
	if res.Members[0].OwnershipPercent != 60 || res.Members[1].OwnershipPercent != 40 {
		t.Fatalf("unexpected order: %+v", res.Members)
	}
}

func TestNormalize_RoleListsKeepSourceOrder(t *testing.T) {
	rec := formation.NewSourceRecord("rec2", formation.Fields{
		formation.FieldEntityType: "C-Corp",
		"Owner Count":             1,
		"Owner 1 Name":            "Holder",
		"Owner 1 Ownership %":     0.5,
		"Directors Count":         2,
		"Director 1 Name":         "Zed",
		"Director 2 Name":         "Amy",
		"Officers Count":          1,
		"Officer 1 Name":          "Oli",
		"Officer 1 Role":          "President",
	})
	res := Normalize(rec, rec.EntityKind)
	if len(res.Members) != 0 || len(res.Managers) != 0 {
		t.Fatalf("corporation must not produce LLC parties: %+v", res)
	}
	if len(res.Shareholders) != 1 || res.Shareholders[0].OwnershipPercent != 50 {
		t.Fatalf("unexpected shareholders: %+v", res.Shareholders)
	}
	if res.Directors[0].Name != "Zed" || res.Directors[1].Name != "Amy" {
		t.Fatalf("directors reordered: %+v", res.Directors)
	}
	if res.Officers[0].Title != "President" {
		t.Fatalf("officer role lost: %+v", res.Officers[0])
	}
}

func TestSanitizeTaxID(t *testing.T) {
	for _, raw := range []string{"N/A", "n/a", "FOREIGN NATIONAL", "Foreign", " n/a "} {
		if got := SanitizeTaxID(raw); got != "" {
			t.Fatalf("SanitizeTaxID(%q): want empty got=%q", raw, got)
		}
	}
	if got := SanitizeTaxID("123-45-6789"); got != "123-45-6789" {
		t.Fatalf("SanitizeTaxID passthrough: got=%q", got)
	}
}

func TestNormalize_SubOwners(t *testing.T) {
	res := Normalize(llcRecord(formation.Fields{
		"Owner Count":                     1,
		"Owner 1 Name":                    "Holdco LLC",
		"Owner 1 Ownership %":             100,
		"Owner 1 Tax ID":                  "FOREIGN",
		"Owner 1 Sub-Owner Count":         9,
		"Owner 1 Sub-Owner 1 Name":        "Pat",
		"Owner 1 Sub-Owner 1 Ownership %": 0.3,
		"Owner 1 Sub-Owner 2 Name":        "Sam",
		"Owner 1 Sub-Owner 2 Ownership %": 0.7,
	}), formation.EntityLLC)
	m := res.Members[0]
	if m.TaxID != "" {
		t.Fatalf("tax id should be suppressed, got=%q", m.TaxID)
	}
	if len(m.SubOwners) != 2 || m.SubOwners[0].Name != "Sam" || m.SubOwners[0].OwnershipPercent != 70 {
		t.Fatalf("unexpected sub-owners: %+v", m.SubOwners)
	}
}

func TestNormalize_SoleSubOwnerFractionIsFullOwnership(t *testing.T) {
	res := Normalize(llcRecord(formation.Fields{
		"Owner Count":                     1,
		"Owner 1 Name":                    "Holdco LLC",
		"Owner 1 Ownership %":             100,
		"Owner 1 Sub-Owner Count":         1,
		"Owner 1 Sub-Owner 1 Name":        "Pat",
		"Owner 1 Sub-Owner 1 Ownership %": 1.0,
	}), formation.EntityLLC)
	subs := res.Members[0].SubOwners
	if len(subs) != 1 || subs[0].OwnershipPercent != 100 {
		t.Fatalf("sole sub-owner at 1.0: want=100 got=%+v", subs)
	}
}

func TestNormalize_NonFiniteOwnershipReadsAsZero(t *testing.T) {
	rec := llcRecord(formation.Fields{
		"Owner Count":                     4,
		"Owner 1 Name":                    "A",
		"Owner 1 Ownership %":             "NaN",
		"Owner 2 Name":                    "B",
		"Owner 2 Ownership %":             "Inf",
		"Owner 3 Name":                    "C",
		"Owner 3 Ownership %":             "-Infinity",
		"Owner 4 Name":                    "D",
		"Owner 4 Ownership %":             math.NaN(),
		"Owner 4 Sub-Owner Count":         1,
		"Owner 4 Sub-Owner 1 Name":        "E",
		"Owner 4 Sub-Owner 1 Ownership %": "+Inf",
	})
	res := Normalize(rec, formation.EntityLLC)
	if len(res.Members) != 4 {
		t.Fatalf("members: want=4 got=%d", len(res.Members))
	}
	for _, m := range res.Members {
		if m.OwnershipPercent != 0 {
			t.Fatalf("%s: want=0 got=%v", m.Name, m.OwnershipPercent)
		}
	}
	if subs := res.Members[3].SubOwners; len(subs) != 1 || subs[0].OwnershipPercent != 0 {
		t.Fatalf("sub-owner: want=0 got=%+v", subs)
	}
	if _, err := json.Marshal(res.TemplateData(rec)); err != nil {
		t.Fatalf("template data must encode: %v", err)
	}
}

func TestNormalize_MissingCountsAreUndeclared(t *testing.T) {
	res := Normalize(llcRecord(formation.Fields{"Owner 1 Name": "Ghost"}), formation.EntityLLC)
	if res.Counts.Declared {
		t.Fatalf("no count fields present: Declared must be false")
	}
	if len(res.Members) != 0 {
		t.Fatalf("undeclared slots must not be read")
	}
	if got := Normalize(nil, formation.EntityLLC); got.Counts.Members != 0 {
		t.Fatalf("nil record must normalize to empty result")
	}
}

func TestTemplateData(t *testing.T) {
	rec := llcRecord(formation.Fields{
		formation.FieldCompanyName: "Acme",
		"Owner Count":              1,
		"Owner 1 Name":             "Jane",
	})
	data := Normalize(rec, formation.EntityLLC).TemplateData(rec)
	if data["company_name"] != "Acme" {
		t.Fatalf("company_name: got=%v", data["company_name"])
	}
	if managers, ok := data["managers"].([]formation.Party); !ok || managers == nil {
		t.Fatalf("managers must be a non-nil list, got=%#v", data["managers"])
	}
	if data["member_managed"] != true {
		t.Fatalf("member_managed: want=true got=%v", data["member_managed"])
	}
}
