package storage

import "errors"

var (
	// ErrNotFound est retourné quand le fichier ou le dossier n'existe pas
	ErrNotFound = errors.New("storage: not found")

	// ErrAlreadyExists est retourné quand un dossier existe déjà
	ErrAlreadyExists = errors.New("storage: already exists")

	// ErrUnauthorized est retourné quand la politique d'accès refuse l'opération
	ErrUnauthorized = errors.New("storage: unauthorized")
)

// IsTolerated indique si une erreur de EnsureDir peut être ignorée :
// le dossier existe déjà ou la politique interdit de le vérifier.
func IsTolerated(err error) bool {
	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnauthorized)
}

// IsPermanent indique qu'un nouvel essai ne changera rien
func IsPermanent(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnauthorized)
}
