package auth

const (
	RoleAdmin        = "admin"
	RoleChefChantier = "chef_chantier"
	RoleAgent        = "agent"
	RoleLecteur      = "lecteur"
)

const (
	PermRapportsRead   = "rapports.read"
	PermRapportsWrite  = "rapports.write"
	PermRapportsDelete = "rapports.delete"
	PermPhotosWrite    = "photos.write"
	PermStorageAdmin   = "storage.admin"
)

var RolePermissions = map[string][]string{
	RoleLecteur: {
		PermRapportsRead,
	},
	RoleAgent: {
		PermRapportsRead,
		PermPhotosWrite,
	},
	RoleChefChantier: {
		PermRapportsRead,
		PermRapportsWrite,
		PermRapportsDelete,
		PermPhotosWrite,
	},
	RoleAdmin: {
		PermRapportsRead,
		PermRapportsWrite,
		PermRapportsDelete,
		PermPhotosWrite,
		PermStorageAdmin,
	},
}

// IsKnownRole indique si le rôle a une entrée dans RolePermissions
func IsKnownRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

// Can indique si le rôle porte la permission. Un rôle inconnu n'a aucun droit.
func Can(role, perm string) bool {
	for _, p := range RolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}
