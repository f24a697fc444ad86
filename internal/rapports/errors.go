package rapports

import (
	"errors"

	"gorm.io/gorm"

	"chantier-rapports/pkg/storage"
)

var (
	// ErrNotFound : fiche absente ou fichier du rapport absent
	ErrNotFound = errors.New("rapport not found")

	// ErrAlreadyExists : un rapport actif dérive déjà le même chemin de stockage
	ErrAlreadyExists = errors.New("rapport with the same storage path already exists")

	// ErrNoPDF est retourné quand le PDF n'a pas encore été déposé
	ErrNoPDF = errors.New("rapport has no pdf yet")
)

// translateError ramène les erreurs gorm et storage aux erreurs du package
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, storage.ErrNotFound):
		return errors.Join(ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Join(ErrAlreadyExists, err)
	default:
		return err
	}
}
