package formation

import "strings"

type EntityKind string

const (
	EntityLLC   EntityKind = "LLC"
	EntityCCorp EntityKind = "C-Corp"
	EntitySCorp EntityKind = "S-Corp"
)

// ParseEntityKind tolerates the spellings staff type into the intake record
// ("llc", "L.L.C.", "C Corporation", "s corp"). Unknown values return "".
func ParseEntityKind(raw string) EntityKind {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer(".", "", "-", "", "_", "", " ", "").Replace(s)
	switch {
	case s == "":
		return ""
	case s == "llc" || strings.HasPrefix(s, "limitedliability"):
		return EntityLLC
	case s == "ccorp" || s == "ccorporation" || s == "corp" || s == "corporation" || s == "inc":
		return EntityCCorp
	case s == "scorp" || s == "scorporation":
		return EntitySCorp
	default:
		return ""
	}
}

func (k EntityKind) IsLLC() bool { return k == EntityLLC }

func (k EntityKind) IsCorporation() bool { return k == EntityCCorp || k == EntitySCorp }

func (k EntityKind) Valid() bool { return k.IsLLC() || k.IsCorporation() }
