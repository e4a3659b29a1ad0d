// Package parties turns the numbered repeating-group fields of an intake
// record into ordered party lists. Nothing outside this package reads
// "Owner 3 Name" style fields.
package parties

import (
	"math"
	"sort"
	"strings"

	"github.com/yungbote/formationvault-backend/internal/domain/formation"
)

type Result struct {
	EntityKind   formation.EntityKind `json:"entity_kind"`
	Members      []formation.Party    `json:"members,omitempty"`
	Managers     []formation.Party    `json:"managers,omitempty"`
	Shareholders []formation.Party    `json:"shareholders,omitempty"`
	Directors    []formation.Party    `json:"directors,omitempty"`
	Officers     []formation.Party    `json:"officers,omitempty"`
	Counts       formation.Counts     `json:"counts"`
}

// Normalize never fails. Missing or malformed values degrade to empty or zero.
// Owners become members for LLCs and shareholders for corporations.
func Normalize(rec *formation.SourceRecord, kind formation.EntityKind) Result {
	var f formation.Fields
	if rec != nil {
		f = rec.Fields
	}
	res := Result{EntityKind: kind}

	ownerCount, ownerDeclared := declaredCount(f, fieldOwnerCount)
	res.Counts.Declared = ownerDeclared

	switch {
	case kind.IsLLC():
		res.Members = readOwners(f, ownerCount, formation.RoleMember)
		n, ok := declaredCount(f, fieldManagerCount)
		res.Counts.Declared = res.Counts.Declared || ok
		res.Managers = readRole(f, "Manager", n, formation.RoleManager)
	case kind.IsCorporation():
		res.Shareholders = readOwners(f, ownerCount, formation.RoleShareholder)
		d, okD := declaredCount(f, fieldDirectorCount)
		o, okO := declaredCount(f, fieldOfficerCount)
		res.Counts.Declared = res.Counts.Declared || okD || okO
		res.Directors = readRole(f, "Director", d, formation.RoleDirector)
		res.Officers = readRole(f, "Officer", o, formation.RoleOfficer)
	}

	res.Counts.Members = len(res.Members)
	res.Counts.Managers = len(res.Managers)
	res.Counts.Shareholders = len(res.Shareholders)
	res.Counts.Directors = len(res.Directors)
	res.Counts.Officers = len(res.Officers)
	return res
}

// ClampCount bounds a declared count to [0, MaxSlots].
func ClampCount(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxSlots {
		return MaxSlots
	}
	return n
}

func declaredCount(f formation.Fields, key string) (int, bool) {
	if !f.Has(key) {
		return 0, false
	}
	n, ok := f.Int(key)
	if !ok {
		return 0, true
	}
	return ClampCount(n), true
}

func readOwners(f formation.Fields, count int, role formation.PartyRole) []formation.Party {
	out := make([]formation.Party, 0, count)
	raw := make([]float64, 0, count)
	for i := 1; i <= count; i++ {
		name := f.String(ownerField(i, "Name"))
		if name == "" {
			continue
		}
		v, _ := f.Float(ownerField(i, "Ownership %"))
		raw = append(raw, v)
		out = append(out, formation.Party{
			Role:      role,
			Name:      name,
			Address:   f.String(ownerField(i, "Address")),
			TaxID:     SanitizeTaxID(f.String(ownerField(i, "Tax ID"))),
			SubOwners: readSubOwners(f, i),
		})
	}
	scale := ownershipScale(raw)
	for i := range out {
		out[i].OwnershipPercent = scale(raw[i])
	}
	sortByOwnership(out)
	return out
}

func readSubOwners(f formation.Fields, owner int) []formation.Party {
	n, ok := declaredCount(f, subOwnerCountField(owner))
	if !ok || n == 0 {
		return nil
	}
	var out []formation.Party
	var raw []float64
	for j := 1; j <= n; j++ {
		name := f.String(subOwnerField(owner, j, "Name"))
		if name == "" {
			continue
		}
		v, _ := f.Float(subOwnerField(owner, j, "Ownership %"))
		raw = append(raw, v)
		out = append(out, formation.Party{
			Role:    formation.RoleMember,
			Name:    name,
			Address: f.String(subOwnerField(owner, j, "Address")),
		})
	}
	scale := ownershipScale(raw)
	for i := range out {
		out[i].OwnershipPercent = scale(raw[i])
	}
	sortByOwnership(out)
	return out
}

func readRole(f formation.Fields, prefix string, count int, role formation.PartyRole) []formation.Party {
	out := make([]formation.Party, 0, count)
	for i := 1; i <= count; i++ {
		name := f.String(roleField(prefix, i, "Name"))
		if name == "" {
			continue
		}
		p := formation.Party{
			Role:    role,
			Name:    name,
			Address: f.String(roleField(prefix, i, "Address")),
		}
		if role == formation.RoleOfficer {
			p.Title = f.String(roleField(prefix, i, "Role"))
		}
		out = append(out, p)
	}
	return out
}

// NormalizeOwnership applies the magnitude heuristic: values strictly between
// 0 and 1 are fractions, everything from 1 upward is already a percentage.
// A genuine 0.5% owner is indistinguishable from a 50% fraction and reads as 50.
func NormalizeOwnership(v float64) float64 {
	switch {
	case v <= 0 || math.IsNaN(v) || math.IsInf(v, 0):
		return 0
	case v < 1:
		return v * 100
	default:
		return v
	}
}

// ownershipScale picks the per-owner conversion for one owner group. A group
// whose raw values sum to at most 1 is fraction-scaled as a whole, so a sole
// owner recorded as 1.0 holds 100%.
func ownershipScale(raw []float64) func(float64) float64 {
	var sum float64
	var hasOne bool
	for _, v := range raw {
		if v > 0 {
			sum += v
		}
		if v == 1 {
			hasOne = true
		}
	}
	if hasOne && sum <= 1+1e-9 {
		return func(v float64) float64 {
			if v <= 0 || math.IsNaN(v) {
				return 0
			}
			return v * 100
		}
	}
	return NormalizeOwnership
}

func sortByOwnership(ps []formation.Party) {
	sort.SliceStable(ps, func(i, j int) bool {
		return ps[i].OwnershipPercent > ps[j].OwnershipPercent
	})
}

// SanitizeTaxID drops placeholder tax ids ("N/A", anything mentioning FOREIGN).
func SanitizeTaxID(raw string) string {
	s := strings.TrimSpace(raw)
	up := strings.ToUpper(s)
	if up == "N/A" || strings.Contains(up, "FOREIGN") {
		return ""
	}
	return s
}
