package recommendation

import "strings"

// FilterByHistory drops medications the patient must not take.  A
// medication is excluded when its name or generic name contains any
// recorded allergy, or when one of its contraindications is a recorded
// condition.  Both checks ignore case.  Retained medications keep their
// order.  A nil history returns candidates unchanged.
func FilterByHistory(candidates []Medication, history *PatientHistory) []Medication {
	if history == nil {
		return candidates
	}

	allergies := lowerAll(history.Allergies)
	conditions := make(map[string]struct{}, len(history.Conditions))
	for _, c := range lowerAll(history.Conditions) {
		conditions[c] = struct{}{}
	}

	out := make([]Medication, 0, len(candidates))
	for _, med := range candidates {
		if hasAllergen(med, allergies) || isContraindicated(med, conditions) {
			continue
		}
		out = append(out, med)
	}
	return out
}

func hasAllergen(med Medication, allergies []string) bool {
	name := strings.ToLower(med.Name)
	generic := strings.ToLower(med.GenericName)
	for _, a := range allergies {
		if strings.Contains(name, a) || strings.Contains(generic, a) {
			return true
		}
	}
	return false
}

func isContraindicated(med Medication, conditions map[string]struct{}) bool {
	for _, c := range med.Contraindications {
		if _, ok := conditions[strings.ToLower(strings.TrimSpace(c))]; ok {
			return true
		}
	}
	return false
}

// lowerAll lowercases and trims items, dropping blanks.  A blank allergy
// would otherwise match every medication.
func lowerAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.ToLower(strings.TrimSpace(it)); it != "" {
			out = append(out, it)
		}
	}
	return out
}
