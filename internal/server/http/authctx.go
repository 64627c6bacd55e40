package httpserver

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/and161185/vidhub/internal/model"
)

type ctxKey string

const accountKey ctxKey = "vidhub.account"

// WithAccount stores the authenticated account in context.
func WithAccount(ctx context.Context, a *model.Account) context.Context {
	return context.WithValue(ctx, accountKey, a)
}

// AccountFromCtx fetches the authenticated account from context.
func AccountFromCtx(ctx context.Context) (*model.Account, bool) {
	a, ok := ctx.Value(accountKey).(*model.Account)
	return a, ok && a != nil
}

// current returns the account attached by Session; handlers behind it may rely on it.
func current(c *gin.Context) *model.Account {
	a, _ := AccountFromCtx(c.Request.Context())
	return a
}
