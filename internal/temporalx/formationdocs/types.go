package formationdocs

const (
	WorkflowName     = "formation_documents"
	ActivityPlan     = "formation_documents_plan"
	ActivityGenerate = "formation_documents_generate"

	// Error type for failures a retry cannot fix (bad record data).
	errTypeInvalidInput = "invalid_input"
)

type Input struct {
	RecordID             string   `json:"record_id"`
	UserID               string   `json:"user_id,omitempty"`
	UpdateExternalRecord bool     `json:"update_external_record"`
	DocumentKinds        []string `json:"document_kinds,omitempty"`
}

type GenerateInput struct {
	RecordID             string `json:"record_id"`
	DocumentKind         string `json:"document_kind"`
	UserID               string `json:"user_id,omitempty"`
	UpdateExternalRecord bool   `json:"update_external_record"`
}

type DocumentOutcome struct {
	DocumentID string `json:"document_id"`
	StorageKey string `json:"storage_key,omitempty"`
	Format     string `json:"format,omitempty"`
	Error      string `json:"error,omitempty"`
}

type Result struct {
	RecordID  string            `json:"record_id"`
	Documents []DocumentOutcome `json:"documents"`
}

func (r Result) Failed() int {
	n := 0
	for _, d := range r.Documents {
		if d.Error != "" {
			n++
		}
	}
	return n
}
