package formation

// Top-level CRM field names. Numbered repeating-group fields are owned by the
// parties package and never read outside it.
const (
	FieldCompanyName    = "Company Name"
	FieldEntityType     = "Entity Type"
	FieldFormationState = "Formation State"
	FieldFormationDate  = "Formation Date"
	FieldUserID         = "User ID"
	FieldCompanyID      = "Company ID"
	FieldVaultPath      = "Vault Path"
)

// SourceRecord is the questionnaire-derived record for one company.
type SourceRecord struct {
	ID             string
	UserID         string
	CompanyID      string
	CompanyName    string
	EntityKind     EntityKind
	FormationState string
	FormationDate  string
	VaultPath      string

	// Fields keeps the raw repeating-group data for the normalizer.
	Fields Fields
}

// NewSourceRecord maps a raw CRM field bag onto the explicit record schema.
// Missing fields become empty values.
func NewSourceRecord(id string, fields Fields) *SourceRecord {
	if fields == nil {
		fields = Fields{}
	}
	companyID := fields.String(FieldCompanyID)
	if companyID == "" {
		companyID = id
	}
	return &SourceRecord{
		ID:             id,
		UserID:         fields.String(FieldUserID),
		CompanyID:      companyID,
		CompanyName:    fields.String(FieldCompanyName),
		EntityKind:     ParseEntityKind(fields.String(FieldEntityType)),
		FormationState: fields.String(FieldFormationState),
		FormationDate:  fields.String(FieldFormationDate),
		VaultPath:      fields.String(FieldVaultPath),
		Fields:         fields,
	}
}
