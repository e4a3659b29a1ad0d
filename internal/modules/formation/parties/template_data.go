package parties

import (
	"github.com/yungbote/formationvault-backend/internal/domain/formation"
)

// TemplateData is the payload the rendering service merges into a template.
// Keys are snake_case and list values are never nil so templates can loop safely.
func (r Result) TemplateData(rec *formation.SourceRecord) map[string]any {
	data := map[string]any{
		"entity_type":  string(r.EntityKind),
		"members":      orEmpty(r.Members),
		"managers":     orEmpty(r.Managers),
		"shareholders": orEmpty(r.Shareholders),
		"directors":    orEmpty(r.Directors),
		"officers":     orEmpty(r.Officers),
		"counts":       r.Counts,
	}
	if rec != nil {
		data["company_name"] = rec.CompanyName
		data["formation_state"] = rec.FormationState
		data["formation_date"] = rec.FormationDate
	}
	if r.EntityKind.IsLLC() {
		data["member_managed"] = len(r.Managers) == 0
	}
	return data
}

func orEmpty(ps []formation.Party) []formation.Party {
	if ps == nil {
		return []formation.Party{}
	}
	return ps
}
