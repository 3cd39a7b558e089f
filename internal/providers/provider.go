package providers

import (
	"context"

	"pclima/internal/model"
)

type Provider interface {
	Name() string
	GetData(ctx context.Context, sel model.Selection) (model.Result, error)
	Save(ctx context.Context, r model.Result, dest string) error
}
