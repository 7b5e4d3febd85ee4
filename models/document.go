package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/supplyline/procurement_backend/config"
	"github.com/supplyline/procurement_backend/utils"
)

// Document is attachment metadata hung off a batch or purchase order
// (inspection report, invoice scan, packing list). Only the metadata lives
// here; the bytes live wherever FileUrl points.
type Document struct {
	ID            string    `gorm:"size:36;primary_key" json:"id"` // uuid
	ReferenceId   string    `gorm:"size:36;index;not null" json:"reference_id"`
	ReferenceType string    `gorm:"size:50;index;not null" json:"reference_type"`
	FileName      string    `gorm:"size:255;not null" json:"file_name"`
	FileUrl       string    `gorm:"size:1024;not null" json:"file_url"`
	ContentType   string    `gorm:"size:100" json:"content_type"`
	Description   string    `gorm:"type:text" json:"description"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type NewDocument struct {
	FileName    string `json:"file_name" validate:"required"`
	FileUrl     string `json:"file_url" validate:"required"`
	ContentType string `json:"content_type"`
	Description string `json:"description"`
}

// mapNewDocuments validates and converts attachment inputs. referenceId may be
// zero-valued when the parent row is created in the same gorm call; the
// polymorphic association fills it in.
func mapNewDocuments(inputs []*NewDocument, referenceType string, _ int) ([]*Document, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	documents := make([]*Document, 0, len(inputs))
	for _, input := range inputs {
		if err := utils.ValidateStruct(input); err != nil {
			return nil, err
		}
		if !strings.HasPrefix(input.FileUrl, "http://") && !strings.HasPrefix(input.FileUrl, "https://") {
			return nil, errors.New("file url must be absolute")
		}
		documents = append(documents, &Document{
			ID:            uuid.NewString(),
			ReferenceType: referenceType,
			FileName:      input.FileName,
			FileUrl:       input.FileUrl,
			ContentType:   input.ContentType,
			Description:   input.Description,
		})
	}
	return documents, nil
}

func GetDocuments(ctx context.Context, referenceId string, referenceType string) ([]*Document, error) {
	db := config.GetDB()
	var results []*Document
	err := db.WithContext(ctx).
		Where("reference_id = ? AND reference_type = ?", referenceId, referenceType).
		Order("created_at ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
