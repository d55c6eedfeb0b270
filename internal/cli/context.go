// Package cli provides the command-line interface for the keyfc forum client.
package cli

import (
	"context"

	"github.com/keyfc/bbs/internal/app"
	"github.com/keyfc/bbs/internal/reqctx"
	"github.com/spf13/cobra"
)

type ctxKey struct{}

// SetApp stores the Application in the command's context and tags it with a request id
func SetApp(cmd *cobra.Command, a *app.Application) {
	if cmd == nil {
		return
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a != nil {
		ctx = reqctx.WithRequestContext(ctx, cmd.CommandPath())
	}
	cmd.SetContext(context.WithValue(ctx, ctxKey{}, a))
}

// GetApp retrieves the Application stored by SetApp, or nil
func GetApp(cmd *cobra.Command) *app.Application {
	if cmd == nil || cmd.Context() == nil {
		return nil
	}
	a, _ := cmd.Context().Value(ctxKey{}).(*app.Application)
	return a
}
