package catalog

import "voice-cart/internal/domain"

var builtin = []domain.Product{
	{ID: "101", Name: "Potato", PrimaryUnit: domain.UnitKilogram, MinQuantity: 0.5, MaxQuantity: 5, QuantityStep: 0.25},
	{ID: "102", Name: "Banana", PrimaryUnit: domain.UnitDozen, MinQuantity: 1, MaxQuantity: 5, QuantityStep: 0.5},
	{ID: "1", Name: "Mango", PrimaryUnit: domain.UnitGram, MinQuantity: 100, MaxQuantity: 500, QuantityStep: 50},
	{ID: "1", Name: "Pineapple", PrimaryUnit: domain.UnitPiece, MinQuantity: 1, MaxQuantity: 3, QuantityStep: 1},
	{ID: "1", Name: "Milk", PrimaryUnit: domain.UnitLitre, MinQuantity: 0.5, MaxQuantity: 4, QuantityStep: 0.5},
	{ID: "1", Name: "Orange juice", PrimaryUnit: domain.UnitMillilitre, MinQuantity: 200, MaxQuantity: 2000, QuantityStep: 100},
}
