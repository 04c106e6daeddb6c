package model

import (
	"time"

	"proxy-admin-bot/internal/domain"
)

// UserTemplate is a named preset used to fast-create or charge accounts.
type UserTemplate struct {
	ID             int64
	Name           string
	DataLimit      int64 // bytes, 0 = unlimited
	ExpireDuration int64 // seconds, 0 = never
	UsernamePrefix string
	UsernameSuffix string
	Inbounds       Inbounds
	CreatedAt      time.Time
}

func (t *UserTemplate) IsZero() bool { return t == nil || t.ID == 0 }

// NewUserTemplate validates and constructs a template.
func NewUserTemplate(name string, dataLimit, expireDuration int64, prefix, suffix string, inbounds Inbounds) (*UserTemplate, error) {
	if name == "" || dataLimit < 0 || expireDuration < 0 || len(inbounds) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &UserTemplate{
		Name:           name,
		DataLimit:      dataLimit,
		ExpireDuration: expireDuration,
		UsernamePrefix: prefix,
		UsernameSuffix: suffix,
		Inbounds:       inbounds.Clone(),
		CreatedAt:      time.Now(),
	}, nil
}

// ExpireFrom returns the expiry a fresh charge at now would produce, nil when
// the template never expires.
func (t *UserTemplate) ExpireFrom(now time.Time) *time.Time {
	if t.ExpireDuration <= 0 {
		return nil
	}
	e := now.Add(time.Duration(t.ExpireDuration) * time.Second)
	return &e
}
