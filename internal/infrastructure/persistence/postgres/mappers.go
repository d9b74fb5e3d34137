package postgres

import (
	"github.com/imbuy/marketplace/internal/domain"
)

func toDBModel(lot domain.Lot) lotRow {
	var description *string
	if lot.Description != "" {
		description = &lot.Description
	}

	return lotRow{
		ID:           lot.ID,
		Title:        lot.Title,
		Description:  description,
		StartPrice:   lot.StartPrice,
		CurrentPrice: lot.CurrentPrice,
		BidStep:      lot.BidStep,
		OwnerID:      lot.OwnerID,
		CategoryID:   lot.CategoryID,
		WinnerID:     lot.WinnerID,
		Status:       string(lot.Status),
		StartDate:    lot.StartDate,
		EndDate:      lot.EndDate,
		CreatedAt:    lot.CreatedAt,
	}
}

func toDomain(row lotRow) domain.Lot {
	var description string
	if row.Description != nil {
		description = *row.Description
	}

	return domain.Lot{
		ID:           row.ID,
		Title:        row.Title,
		Description:  description,
		StartPrice:   row.StartPrice,
		CurrentPrice: row.CurrentPrice,
		BidStep:      row.BidStep,
		OwnerID:      row.OwnerID,
		CategoryID:   row.CategoryID,
		WinnerID:     row.WinnerID,
		Status:       domain.LotStatus(row.Status),
		StartDate:    row.StartDate,
		EndDate:      row.EndDate,
		CreatedAt:    row.CreatedAt,
	}
}
