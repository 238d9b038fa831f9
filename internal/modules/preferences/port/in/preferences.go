package in

import (
	"context"

	"webtally/internal/modules/preferences/dto"
)

type Usecase interface {
	Load(ctx context.Context) error
	Get(ctx context.Context) (dto.PreferencesOutput, error)
	AddSite(ctx context.Context, input dto.SiteInput) (dto.ListOutput, error)
	RemoveSite(ctx context.Context, input dto.SiteInput) (dto.ListOutput, error)
	ReplaceList(ctx context.Context, input dto.ReplaceListInput) (dto.ListOutput, error)
	Classify(ctx context.Context, domain string) (dto.ClassifyOutput, error)
}
