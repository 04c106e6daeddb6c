package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"proxy-admin-bot/internal/domain"
	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/domain/ports/adapter"
	"proxy-admin-bot/internal/domain/ports/repository"
	"proxy-admin-bot/internal/infra/logging"
)

// Compile-time check
var _ LinksUseCase = (*linksUC)(nil)

// AccountLinks is everything a client needs to import an account.
type AccountLinks struct {
	Account         *model.Account
	SubscriptionURL string
	Links           []ShareLink
}

// QRImage is a rendered QR code with its caption.
type QRImage struct {
	Caption string
	PNG     []byte
}

// LinksUseCase renders share links, subscription URLs and QR codes.
type LinksUseCase interface {
	Links(ctx context.Context, username string) (*AccountLinks, error)
	QRCodes(ctx context.Context, username string) ([]QRImage, error)
}

type linksUC struct {
	accounts repository.AccountRepository
	core     adapter.ProxyCore
	tokens   adapter.SubscriptionTokens
	qr       adapter.QREncoder
	host     string
	log      *zerolog.Logger
}

func NewLinksUseCase(
	accounts repository.AccountRepository,
	core adapter.ProxyCore,
	tokens adapter.SubscriptionTokens,
	qr adapter.QREncoder,
	publicHost string,
	logger *zerolog.Logger,
) *linksUC {
	return &linksUC{accounts: accounts, core: core, tokens: tokens, qr: qr, host: publicHost, log: logger}
}

func (l *linksUC) Links(ctx context.Context, username string) (*AccountLinks, error) {
	defer logging.TraceDuration(l.log, "LinksUC.Links")()
	acc, err := l.accounts.FindByUsername(ctx, repository.NoTX, username)
	if err != nil {
		return nil, storeError(err, username)
	}
	sub, err := l.tokens.URL(acc)
	if err != nil {
		return nil, domain.NewUpstreamError("err.links_failed", err, username)
	}
	links, err := shareLinks(l.host, acc, l.core.InboundsByProtocol())
	if err != nil {
		return nil, domain.NewUpstreamError("err.links_failed", err, username)
	}
	return &AccountLinks{Account: acc, SubscriptionURL: sub, Links: links}, nil
}

// QRCodes renders the subscription URL first, then one code per link.
func (l *linksUC) QRCodes(ctx context.Context, username string) ([]QRImage, error) {
	defer logging.TraceDuration(l.log, "LinksUC.QRCodes")()
	al, err := l.Links(ctx, username)
	if err != nil {
		return nil, err
	}
	out := make([]QRImage, 0, len(al.Links)+1)
	png, err := l.qr.Encode(al.SubscriptionURL, 0)
	if err != nil {
		return nil, domain.NewUpstreamError("err.links_failed", err, username)
	}
	out = append(out, QRImage{Caption: username, PNG: png})
	for _, sl := range al.Links {
		png, err := l.qr.Encode(sl.URL, 0)
		if err != nil {
			return nil, domain.NewUpstreamError("err.links_failed", err, username)
		}
		out = append(out, QRImage{Caption: username + " · " + sl.Tag, PNG: png})
	}
	return out, nil
}
