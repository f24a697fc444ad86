// Package rapport dérive les noms et chemins de stockage des rapports de chantier.
//
// Toutes les fonctions sont pures : les mêmes entrées (chantier, type, date)
// donnent toujours le même chemin, en écriture comme en lecture.
package rapport

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
)

const (
	// Root est le dossier racine de tous les rapports
	Root = "RAPPORT"

	// MarkerName est l'objet vide qui matérialise un dossier dans un object store
	MarkerName = ".keep"

	pdfDir   = "PDF"
	photoDir = "PHOTOS"

	dateKeyLayout = "20060102"
	dateLayout    = "2006-01-02"
)

var titleRegex = regexp.MustCompile(`^[^/]+/[^/]+/\d{8}$`)

var (
	// ErrEmptySegment : le chantier ou le type ne garde aucun caractère après Sanitize
	ErrEmptySegment = errors.New("segment has no ASCII letter or digit")

	// ErrDateOutOfRange : la clé YYYYMMDD n'a que quatre chiffres d'année
	ErrDateOutOfRange = errors.New("date year out of range 0000-9999")
)

// Sanitize ne garde que les lettres ASCII, les chiffres et les espaces,
// remplace chaque suite d'espaces par un underscore puis retire les
// underscores en début et fin. Les accents sont supprimés, pas translittérés.
func Sanitize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	inSpace := false
	for _, r := range raw {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			inSpace = false
		case isSeparator(r):
			if !inSpace {
				b.WriteByte('_')
				inSpace = true
			}
		}
	}

	return strings.Trim(b.String(), "_")
}

// isSeparator reconnaît les blancs remplacés par un underscore : la classe
// \s usuelle, avec U+FEFF et sans U+0085, ce qui la distingue de unicode.IsSpace
func isSeparator(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ',
		'\u00a0', '\u1680', '\u2028', '\u2029', '\u202f', '\u205f', '\u3000', '\ufeff':
		return true
	}
	return r >= '\u2000' && r <= '\u200a'
}

// CheckDate vérifie que FormatDateKey produira exactement huit chiffres
func CheckDate(date time.Time) error {
	if year := date.Year(); year < 0 || year > 9999 {
		return fmt.Errorf("%w: %d", ErrDateOutOfRange, year)
	}
	return nil
}

// FormatDateKey formate une date en YYYYMMDD sans conversion de fuseau.
// Hors de CheckDate, la clé n'a pas huit chiffres et le titre est invalide.
func FormatDateKey(date time.Time) string {
	return fmt.Sprintf("%04d%02d%02d", date.Year(), int(date.Month()), date.Day())
}

// ParseDateKey est l'inverse de FormatDateKey
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.Parse(dateKeyLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
	}
	return t, nil
}

// ParseDate lit une date au format YYYY-MM-DD
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", value, err)
	}
	return t, nil
}

// FormatDate formate une date en YYYY-MM-DD
func FormatDate(date time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", date.Year(), int(date.Month()), date.Day())
}

// BuildFileName retourne {chantier}_{type}_{YYYYMMDD}.pdf
func BuildFileName(chantier, typ string, date time.Time) string {
	return fmt.Sprintf("%s_%s_%s.pdf", Sanitize(chantier), Sanitize(typ), FormatDateKey(date))
}

// BuildStoragePath retourne RAPPORT/PDF/{chantier}/{type}/{fichier}.
// Un chantier qui se réduit à une chaîne vide donne un segment vide.
func BuildStoragePath(chantier, typ string, date time.Time) string {
	return strings.Join([]string{
		Root, pdfDir, Sanitize(chantier), Sanitize(typ), BuildFileName(chantier, typ, date),
	}, "/")
}

// BuildDisplayTitle retourne le titre affiché : {chantier}/{Label}/{YYYYMMDD}
func BuildDisplayTitle(chantier, typ string, date time.Time) string {
	return strings.Join([]string{Sanitize(chantier), TypeLabel(typ), FormatDateKey(date)}, "/")
}

// IsValidRapportTitle vérifie le format à trois segments d'un titre
func IsValidRapportTitle(title string) bool {
	return titleRegex.MatchString(title)
}

// Title est un titre de rapport décomposé.
// TypeLabel contient le libellé du type, pas sa clé.
type Title struct {
	Chantier  string `json:"chantier"`
	TypeLabel string `json:"type_label"`
	DateKey   string `json:"date_key"`
}

// ParseTitle décompose un titre produit par BuildDisplayTitle
func ParseTitle(title string) (Title, bool) {
	if !IsValidRapportTitle(title) {
		return Title{}, false
	}

	parts := strings.Split(title, "/")
	return Title{
		Chantier:  parts[0],
		TypeLabel: parts[1],
		DateKey:   parts[2],
	}, true
}

// PhotoFileName retourne photo_{index}_{timestamp ms}.{ext}
func PhotoFileName(index int, ts time.Time, ext string) string {
	return fmt.Sprintf("photo_%d_%d.%s", index, ts.UnixMilli(), strings.ToLower(strings.TrimPrefix(ext, ".")))
}

// Key identifie un rapport par ses trois attributs sémantiques
type Key struct {
	Chantier string
	Type     string
	Date     time.Time
}

// Validate refuse les clés qui produiraient un chemin ou un titre malformé
func (k Key) Validate() error {
	if Sanitize(k.Chantier) == "" {
		return fmt.Errorf("chantier %q: %w", k.Chantier, ErrEmptySegment)
	}
	if Sanitize(k.Type) == "" {
		return fmt.Errorf("type %q: %w", k.Type, ErrEmptySegment)
	}
	return CheckDate(k.Date)
}

func (k Key) FileName() string {
	return BuildFileName(k.Chantier, k.Type, k.Date)
}

func (k Key) StoragePath() string {
	return BuildStoragePath(k.Chantier, k.Type, k.Date)
}

func (k Key) DisplayTitle() string {
	return BuildDisplayTitle(k.Chantier, k.Type, k.Date)
}

// Dir est le dossier parent du PDF
func (k Key) Dir() string {
	return strings.Join([]string{Root, pdfDir, Sanitize(k.Chantier), Sanitize(k.Type)}, "/")
}

// PhotoDir est le dossier des photos du rapport
func (k Key) PhotoDir() string {
	return strings.Join([]string{
		Root, photoDir, Sanitize(k.Chantier), Sanitize(k.Type), FormatDateKey(k.Date),
	}, "/")
}

// PhotoPath retourne le chemin complet d'une photo du rapport
func (k Key) PhotoPath(filename string) string {
	return k.PhotoDir() + "/" + filename
}

// ChantierPDFDir est le dossier de tous les PDF d'un chantier
func ChantierPDFDir(chantier string) string {
	return strings.Join([]string{Root, pdfDir, Sanitize(chantier)}, "/")
}
