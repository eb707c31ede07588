package router

import (
	"log/slog"
	"sort"

	"github.com/anakalachikova-cmd/sterladometr-bot/core/logger"
	tg "github.com/anakalachikova-cmd/sterladometr-bot/core/telegram"
	"github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures the admin gate for commands.
type CommandRouteOptions struct {
	AdminID       int64
	AdminChecker  middleware.AdminChecker
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes binds every registered command and alias. Admin-only
// commands pass the admin gate first.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	gate := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminID:  opts.AdminID,
		Checker:  opts.AdminChecker,
		OnReject: opts.OnAdminReject,
	})

	cmds := reg.Commands()
	endpoints := make([]string, 0, len(cmds))
	for ep := range cmds {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	routes := make([]tg.Route, 0, len(endpoints))
	for _, ep := range endpoints {
		def := cmds[ep]
		h := def.Handler
		if def.AdminOnly {
			h = gate(h)
		}
		routes = append(routes, tg.Route{
			Endpoint: ep,
			Handler:  middleware.RecoverMiddleware(summarize(handlerName(ep), h)),
		})
	}

	logger.TWire.Info("routes bound",
		slog.String("event", "wire.commands"),
		slog.Int("commands", len(endpoints)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}
