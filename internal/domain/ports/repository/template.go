package repository

import (
	"context"

	"proxy-admin-bot/internal/domain/model"
)

type TemplateRepository interface {
	Save(ctx context.Context, tx Tx, t *model.UserTemplate) error
	FindByID(ctx context.Context, tx Tx, id int64) (*model.UserTemplate, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.UserTemplate, error)
	Delete(ctx context.Context, tx Tx, id int64) error
}
