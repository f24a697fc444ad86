package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"chantier-rapports/pkg/rapport"
)

type RapportStatus string

const (
	// StatusDraft : fiche créée, PDF pas encore déposé
	StatusDraft RapportStatus = "draft"
	// StatusFinal : PDF déposé
	StatusFinal RapportStatus = "final"
)

// Rapport est la fiche d'un rapport de chantier.
// Les noms sont recalculés par Key() ; PathKey ne sert qu'à l'unicité des
// chemins entre fiches actives.
type Rapport struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	Chantier    string         `json:"chantier" gorm:"type:varchar(255);not null;index"`
	Type        string         `json:"type" gorm:"type:varchar(64);not null;index"`
	Date        string         `json:"date" gorm:"type:varchar(10);not null;index"` // YYYY-MM-DD
	Description string         `json:"description" gorm:"type:text"`
	Author      string         `json:"author" gorm:"type:varchar(255)"`
	Status      RapportStatus  `json:"status" gorm:"type:varchar(20);not null;default:'draft';index"`
	PDFSize     int64          `json:"pdf_size" gorm:"column:pdf_size;default:0"`
	PhotoCount  int            `json:"photo_count" gorm:"default:0"`
	Metadata    JSON           `json:"metadata" gorm:"type:jsonb"`
	PathKey     string         `json:"-" gorm:"column:path_key;type:varchar(600);uniqueIndex:idx_rapports_live_path,where:deleted_at IS NULL"`
	CreatedAt   time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName spécifie le nom de la table
func (Rapport) TableName() string {
	return "rapports"
}

// BeforeCreate hook GORM pour initialiser l'ID et le statut
func (r *Rapport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = StatusDraft
	}
	if r.Metadata == nil {
		r.Metadata = JSON{}
	}
	return nil
}

// BeforeSave garde PathKey aligné sur les attributs du rapport
func (r *Rapport) BeforeSave(tx *gorm.DB) error {
	r.PathKey = r.StoragePathKey()
	return nil
}

// StoragePathKey retourne le chemin du PDF, vide si la date est invalide
func (r *Rapport) StoragePathKey() string {
	key, err := r.Key()
	if err != nil {
		return ""
	}
	return key.StoragePath()
}

// Key retourne la clé sémantique du rapport
func (r *Rapport) Key() (rapport.Key, error) {
	date, err := rapport.ParseDate(r.Date)
	if err != nil {
		return rapport.Key{}, err
	}
	return rapport.Key{Chantier: r.Chantier, Type: r.Type, Date: date}, nil
}

// CreateRapportRequest représente une demande de création de rapport
// @Description Requête pour créer une fiche de rapport
type CreateRapportRequest struct {
	Chantier    string                 `json:"chantier" validate:"required,notblank,chantier,max=255"`
	Type        string                 `json:"type" validate:"required,rapport_type,max=64"`
	Date        string                 `json:"date" validate:"required,date_ymd"`
	Description string                 `json:"description,omitempty" validate:"max=5000"`
	Author      string                 `json:"author,omitempty" validate:"max=255"`
	Metadata    map[string]interface{} `json:"metadata,omitempty" validate:"max=50"`
} // @name CreateRapportRequest

// NamingRequest regroupe les attributs qui déterminent les noms
type NamingRequest struct {
	Chantier string `json:"chantier" form:"chantier" validate:"required,chantier"`
	Type     string `json:"type" form:"type" validate:"required,rapport_type"`
	Date     string `json:"date" form:"date" validate:"required,date_ymd"`
}

// NamingPreview est le résultat de la dérivation des noms
type NamingPreview struct {
	Chantier     string `json:"chantier"`
	Type         string `json:"type"`
	FileName     string `json:"file_name"`
	StoragePath  string `json:"storage_path"`
	DisplayTitle string `json:"display_title"`
	PhotoDir     string `json:"photo_dir"`
}

// NewNamingPreview dérive tous les noms d'une clé
func NewNamingPreview(key rapport.Key) NamingPreview {
	return NamingPreview{
		Chantier:     rapport.Sanitize(key.Chantier),
		Type:         rapport.Sanitize(key.Type),
		FileName:     key.FileName(),
		StoragePath:  key.StoragePath(),
		DisplayTitle: key.DisplayTitle(),
		PhotoDir:     key.PhotoDir(),
	}
}

// ParseTitleRequest contient un titre à décomposer
type ParseTitleRequest struct {
	Title string `json:"title" validate:"required"`
}

// ParseTitleResponse est le résultat de la décomposition d'un titre
type ParseTitleResponse struct {
	Valid bool           `json:"valid"`
	Title *rapport.Title `json:"title,omitempty"`
}

// ProvisionRequest demande la création d'un dossier
type ProvisionRequest struct {
	Path string `json:"path" validate:"required,max=500"`
}

// RapportResponse représente une fiche de rapport avec ses noms dérivés
// @Description Détails d'un rapport de chantier
type RapportResponse struct {
	ID           uuid.UUID              `json:"id"`
	Chantier     string                 `json:"chantier"`
	Type         string                 `json:"type"`
	TypeLabel    string                 `json:"type_label"`
	Date         string                 `json:"date"`
	Description  string                 `json:"description,omitempty"`
	Author       string                 `json:"author,omitempty"`
	Status       RapportStatus          `json:"status"`
	PDFSize      int64                  `json:"pdf_size"`
	PhotoCount   int                    `json:"photo_count"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	DisplayTitle string                 `json:"display_title"`
	StoragePath  string                 `json:"storage_path"`
	PhotoDir     string                 `json:"photo_dir"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
} // @name RapportResponse

// ToResponse convertit un Rapport en RapportResponse
func (r *Rapport) ToResponse() *RapportResponse {
	resp := &RapportResponse{
		ID:          r.ID,
		Chantier:    r.Chantier,
		Type:        r.Type,
		TypeLabel:   rapport.TypeLabel(r.Type),
		Date:        r.Date,
		Description: r.Description,
		Author:      r.Author,
		Status:      r.Status,
		PDFSize:     r.PDFSize,
		PhotoCount:  r.PhotoCount,
		Metadata:    map[string]interface{}(r.Metadata),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}

	if key, err := r.Key(); err == nil {
		resp.DisplayTitle = key.DisplayTitle()
		resp.StoragePath = key.StoragePath()
		resp.PhotoDir = key.PhotoDir()
	}

	return resp
}

// RapportListResponse représente une liste de rapports
// @Description Liste paginée de rapports
type RapportListResponse struct {
	Rapports   []RapportResponse `json:"rapports"`
	Count      int               `json:"count" example:"25"`
	TotalCount int64             `json:"total_count" example:"150"`
	Pagination PaginationInfo    `json:"pagination"`
} // @name RapportListResponse
