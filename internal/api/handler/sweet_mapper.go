package handler

import (
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

// --- Request → Service input ---

func toCreateInput(req createSweetRequest, userID string) ports.CreateSweetInput {
	return ports.CreateSweetInput{
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price.Numeric,
		Quantity: req.Quantity.Numeric,
		UserID:   userID,
	}
}

func toUpdateInput(id string, req updateSweetRequest, userID string) ports.UpdateSweetInput {
	return ports.UpdateSweetInput{
		ID:       id,
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price.Numeric,
		Quantity: req.Quantity.Numeric,
		UserID:   userID,
	}
}

func toStockChangeInput(id string, amount jsonNumber, userID string) ports.StockChangeInput {
	return ports.StockChangeInput{
		ID:     id,
		Amount: amount.Numeric,
		UserID: userID,
	}
}
