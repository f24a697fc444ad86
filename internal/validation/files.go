package validation

import "strings"

// FileKind est la catégorie d'un fichier déposé
type FileKind string

const (
	KindPDF   FileKind = "pdf"
	KindImage FileKind = "image"
)

const (
	MaxPDFSize   int64 = 50 * 1024 * 1024
	MaxImageSize int64 = 10 * 1024 * 1024
)

var allowedExtensions = map[FileKind]map[string]bool{
	KindPDF:   {"pdf": true},
	KindImage: {"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true},
}

var maxSizes = map[FileKind]int64{
	KindPDF:   MaxPDFSize,
	KindImage: MaxImageSize,
}

// IsValidExtension compare l'extension (texte après le dernier point, en
// minuscules) à la liste autorisée. Sans point, le nom entier est comparé.
func IsValidExtension(filename string, kind FileKind) bool {
	allowed, ok := allowedExtensions[kind]
	if !ok {
		return false
	}

	ext := filename
	if i := strings.LastIndex(filename, "."); i >= 0 {
		ext = filename[i+1:]
	}
	return allowed[strings.ToLower(ext)]
}

// IsValidFileSize vérifie size <= limite du type
func IsValidFileSize(size int64, kind FileKind) bool {
	limit, ok := maxSizes[kind]
	if !ok {
		return false
	}
	return size <= limit
}

// MaxFileSize retourne la limite d'un type, 0 si inconnu
func MaxFileSize(kind FileKind) int64 {
	return maxSizes[kind]
}
