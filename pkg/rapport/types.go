package rapport

import "strings"

// Type est la clé d'un type de rapport
type Type string

const (
	TypeIntervention   Type = "intervention"
	TypeIncident       Type = "incident"
	TypeVisiteChantier Type = "visite_chantier"
	TypeMaintenance    Type = "maintenance"
	TypeReception      Type = "reception"
	TypeSecurite       Type = "securite"
	TypeReserve        Type = "reserve"
)

var typeLabels = map[Type]string{
	TypeIntervention:   "Intervention",
	TypeIncident:       "Incident",
	TypeVisiteChantier: "Visite_Chantier",
	TypeMaintenance:    "Maintenance",
	TypeReception:      "Reception",
	TypeSecurite:       "Securite",
	TypeReserve:        "Reserve",
}

// KnownTypes retourne les types de rapport connus
func KnownTypes() []Type {
	return []Type{
		TypeIntervention, TypeIncident, TypeVisiteChantier, TypeMaintenance,
		TypeReception, TypeSecurite, TypeReserve,
	}
}

// IsKnownType indique si le type fait partie de la table des libellés
func IsKnownType(typ string) bool {
	_, ok := typeLabels[Type(strings.ToLower(strings.TrimSpace(typ)))]
	return ok
}

// TypeLabel retourne le libellé affiché d'un type de rapport.
// Les types inconnus sont sanitisés puis capitalisés mot par mot.
func TypeLabel(typ string) string {
	if label, ok := typeLabels[Type(strings.ToLower(strings.TrimSpace(typ)))]; ok {
		return label
	}

	var parts []string
	for _, w := range strings.Fields(strings.ReplaceAll(typ, "_", " ")) {
		w = Sanitize(w)
		if w == "" {
			continue
		}
		parts = append(parts, strings.ToUpper(w[:1])+strings.ToLower(w[1:]))
	}
	return strings.Join(parts, "_")
}
