package models

// ArchiveFormat définit les formats d'archive supportés
type ArchiveFormat string

const (
	FormatZIP ArchiveFormat = "zip"
	FormatTAR ArchiveFormat = "tar"
)

// ArchiveInfo contient les informations sur une archive de chantier
// @Description Métadonnées d'une archive créée
type ArchiveInfo struct {
	Filename   string   `json:"filename" example:"Tour_A-rapports-20250117-103000.zip"`
	Format     string   `json:"format" example:"zip" enums:"zip"`
	FilesCount int      `json:"files_count" example:"15"`
	Compressed bool     `json:"compressed" example:"true"`
	Files      []string `json:"files,omitempty"`
} // @name ArchiveInfo
