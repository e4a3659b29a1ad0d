package formation

import "strings"

// LedgerKind groups documents in the per-user ledger and picks the vault folder.
type LedgerKind string

const (
	LedgerKindFormation LedgerKind = "formation"
	LedgerKindAgreement LedgerKind = "agreement"
	LedgerKindTax       LedgerKind = "tax"
)

// Segment is the vault folder artifacts of this kind are written to.
func (k LedgerKind) Segment() string {
	switch k {
	case LedgerKindAgreement:
		return "agreements"
	case LedgerKindTax:
		return "documents"
	default:
		return "formation"
	}
}

type EntityScope string

const (
	ScopeLLC         EntityScope = "llc"
	ScopeCorporation EntityScope = "corporation"
	ScopeAny         EntityScope = "any"
)

type TemplateLayout string

const (
	// LayoutByParties templates vary by party counts.
	LayoutByParties TemplateLayout = "by_parties"
	// LayoutSingle templates have one file per entity branch.
	LayoutSingle TemplateLayout = "single"
)

type DocumentKind struct {
	ID       string
	Name     string
	Kind     LedgerKind
	Scope    EntityScope
	Layout   TemplateLayout
	CRMField string
}

// FileTitle is the dashed form used in artifact file names ("Membership-Registry").
func (d DocumentKind) FileTitle() string {
	return strings.Join(strings.Fields(d.Name), "-")
}

func (d DocumentKind) AppliesTo(kind EntityKind) bool {
	switch d.Scope {
	case ScopeAny:
		return kind.Valid()
	case ScopeLLC:
		return kind.IsLLC()
	case ScopeCorporation:
		return kind.IsCorporation()
	default:
		return false
	}
}

var documentKinds = []DocumentKind{
	{ID: "membership-registry", Name: "Membership Registry", Kind: LedgerKindFormation, Scope: ScopeLLC, Layout: LayoutByParties, CRMField: "Membership Registry URL"},
	{ID: "organizational-resolution", Name: "Organizational Resolution", Kind: LedgerKindFormation, Scope: ScopeLLC, Layout: LayoutByParties, CRMField: "Organizational Resolution URL"},
	{ID: "operating-agreement", Name: "Operating Agreement", Kind: LedgerKindAgreement, Scope: ScopeLLC, Layout: LayoutByParties, CRMField: "Operating Agreement URL"},
	{ID: "shareholder-registry", Name: "Shareholder Registry", Kind: LedgerKindFormation, Scope: ScopeCorporation, Layout: LayoutByParties, CRMField: "Shareholder Registry URL"},
	{ID: "board-resolution", Name: "Board Resolution", Kind: LedgerKindFormation, Scope: ScopeCorporation, Layout: LayoutByParties, CRMField: "Board Resolution URL"},
	{ID: "bylaws", Name: "Bylaws", Kind: LedgerKindAgreement, Scope: ScopeCorporation, Layout: LayoutByParties, CRMField: "Bylaws URL"},
	{ID: "ss4-application", Name: "SS-4 Application", Kind: LedgerKindTax, Scope: ScopeAny, Layout: LayoutSingle, CRMField: "SS-4 URL"},
}

// LookupDocumentKind finds a document kind by its stable id.
func LookupDocumentKind(id string) (DocumentKind, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, d := range documentKinds {
		if d.ID == id {
			return d, true
		}
	}
	return DocumentKind{}, false
}

// DocumentKindsFor lists every document kind applicable to an entity, in catalog order.
func DocumentKindsFor(kind EntityKind) []DocumentKind {
	out := make([]DocumentKind, 0, len(documentKinds))
	for _, d := range documentKinds {
		if d.AppliesTo(kind) {
			out = append(out, d)
		}
	}
	return out
}

func AllDocumentKinds() []DocumentKind {
	out := make([]DocumentKind, len(documentKinds))
	copy(out, documentKinds)
	return out
}
