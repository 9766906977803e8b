package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type MeasureUnit string

const (
	UnitKilogram   MeasureUnit = "kg"
	UnitDozen      MeasureUnit = "dz"
	UnitGram       MeasureUnit = "gm"
	UnitPiece      MeasureUnit = "pc"
	UnitLitre      MeasureUnit = "lt"
	UnitMillilitre MeasureUnit = "ml"
)

func (u MeasureUnit) Valid() bool {
	switch u {
	case UnitKilogram, UnitDozen, UnitGram, UnitPiece, UnitLitre, UnitMillilitre:
		return true
	}
	return false
}

type Product struct {
	ID           string      `json:"id" yaml:"id"`
	Name         string      `json:"name" yaml:"name"`
	PrimaryUnit  MeasureUnit `json:"primaryUnit" yaml:"primary_unit"`
	MinQuantity  float64     `json:"minAllowedQuantity" yaml:"min_quantity"`
	MaxQuantity  float64     `json:"maxAllowedQuantity" yaml:"max_quantity"`
	QuantityStep float64     `json:"quantitySteps" yaml:"quantity_step"`
}

// CheckQuantity reports whether q lies within the product bounds and is a
// whole number of steps.
func (p Product) CheckQuantity(q float64) error {
	qty := decimal.NewFromFloat(q)

	if qty.LessThan(decimal.NewFromFloat(p.MinQuantity)) || qty.GreaterThan(decimal.NewFromFloat(p.MaxQuantity)) {
		return fmt.Errorf("%w: %s allows %v to %v %s, got %v",
			ErrQuantityOutOfRange, p.Name, p.MinQuantity, p.MaxQuantity, p.PrimaryUnit, q)
	}

	if p.QuantityStep > 0 {
		step := decimal.NewFromFloat(p.QuantityStep)
		if !qty.Mod(step).IsZero() {
			return fmt.Errorf("%w: %s is sold in steps of %v %s, got %v",
				ErrQuantityStep, p.Name, p.QuantityStep, p.PrimaryUnit, q)
		}
	}

	return nil
}

type CartLine struct {
	ProductID string  `json:"id"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	Unit      string  `json:"unit,omitempty"`
}
