package rbac

import (
	"strings"

	"github.com/smileworks/clinic-core/pkg/types"
)

// honorifics that may prefix a dentist's display name in legacy
// appointment rows. Only a leading whole token is stripped.
var dentistHonorifics = []string{"dr.", "dr", "dentist"}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// stripHonorific removes a single leading honorific token, if present.
// "Dr. Juan Dela Cruz" and "Dentist Juan Dela Cruz" both reduce to
// "juan dela cruz"; an embedded "dr" elsewhere in the name is kept.
func stripHonorific(name string) string {
	norm := normalizeName(name)
	for _, h := range dentistHonorifics {
		if norm == h {
			return ""
		}
		if strings.HasPrefix(norm, h+" ") {
			return strings.TrimSpace(norm[len(h):])
		}
	}
	return norm
}

// DentistNamesMatch compares two dentist display names: exact match
// first, then with leading honorifics stripped from both sides. It
// never falls back to substring containment.
func DentistNamesMatch(a, b string) bool {
	na, nb := normalizeName(a), normalizeName(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	return stripHonorific(na) == stripHonorific(nb)
}

// MatchesDentistUser reports whether an appointment's dentist field
// refers to the given dentist user. Three tiers: exact name, the
// user's role title, then honorific-stripped comparison.
func MatchesDentistUser(u *types.User, dentistField string) bool {
	if u == nil || dentistField == "" {
		return false
	}
	field := normalizeName(dentistField)
	if field == normalizeName(u.Name) && field != "" {
		return true
	}
	if title := normalizeName(u.RoleTitle); title != "" && field == title {
		return true
	}
	return DentistNamesMatch(u.Name, dentistField)
}
