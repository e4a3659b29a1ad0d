package parties

import "fmt"

// MaxSlots bounds every repeating group on the intake record.
const MaxSlots = 6

const (
	fieldOwnerCount    = "Owner Count"
	fieldManagerCount  = "Managers Count"
	fieldDirectorCount = "Directors Count"
	fieldOfficerCount  = "Officers Count"
)

func ownerField(i int, attr string) string {
	return fmt.Sprintf("Owner %d %s", i, attr)
}

func subOwnerCountField(i int) string {
	return fmt.Sprintf("Owner %d Sub-Owner Count", i)
}

func subOwnerField(i, j int, attr string) string {
	return fmt.Sprintf("Owner %d Sub-Owner %d %s", i, j, attr)
}

func roleField(prefix string, i int, attr string) string {
	return fmt.Sprintf("%s %d %s", prefix, i, attr)
}
