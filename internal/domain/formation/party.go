package formation

type PartyRole string

const (
	RoleMember      PartyRole = "member"
	RoleManager     PartyRole = "manager"
	RoleShareholder PartyRole = "shareholder"
	RoleDirector    PartyRole = "director"
	RoleOfficer     PartyRole = "officer"
)

// Party is a normalized owner or role holder ready for template rendering.
type Party struct {
	Role             PartyRole `json:"role"`
	Name             string    `json:"name"`
	Address          string    `json:"address,omitempty"`
	OwnershipPercent float64   `json:"ownership_percent,omitempty"`
	TaxID            string    `json:"tax_id,omitempty"`
	Title            string    `json:"title,omitempty"`
	SubOwners        []Party   `json:"sub_owners,omitempty"`
}

// Counts are the party-list lengths after normalization. Declared is false when
// the record carried none of the count fields at all.
type Counts struct {
	Members      int  `json:"members"`
	Managers     int  `json:"managers"`
	Shareholders int  `json:"shareholders"`
	Directors    int  `json:"directors"`
	Officers     int  `json:"officers"`
	Declared     bool `json:"declared"`
}
