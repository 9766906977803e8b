package application

import (
	"context"

	"voice-cart/internal/domain"
)

// Completer asks a language model which cart functions a transcript calls.
type Completer interface {
	Complete(ctx context.Context, text string, functions []domain.FunctionSpec) ([]domain.FunctionCall, error)
}
