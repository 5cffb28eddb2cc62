package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Necroforger/dgrouter/exrouter"
	"github.com/bwmarrin/discordgo"

	"github.com/cufee/botto-verify/logger"
)

func (b *Bot) commands() *exrouter.Route {
	router := exrouter.New()
	router.On("ping", b.pingCommand)
	router.On("cooldown", b.moderatorOnly(b.cooldownCommand))
	router.On("roster", b.moderatorOnly(b.rosterCommand))
	return router
}

// RouteCommand - run prefix commands posted outside the verify channel
func (b *Bot) RouteCommand(s *discordgo.Session, e *discordgo.MessageCreate) {
	if e.Author == nil || e.Author.Bot || b.prefix == "" || !strings.HasPrefix(e.Content, b.prefix) {
		return
	}
	// Everything typed in the verify channel is a student ID
	if b.inVerifyChannel(cachedSession{s}, e.ChannelID) {
		return
	}
	_ = b.router.FindAndExecute(s, b.prefix, s.State.User.ID, e.Message)
}

func (b *Bot) moderatorOnly(next exrouter.HandlerFunc) exrouter.HandlerFunc {
	return func(ctx *exrouter.Context) {
		perms, err := ctx.Ses.UserChannelPermissions(ctx.Msg.Author.ID, ctx.Msg.ChannelID)
		if err != nil {
			b.log.Error(context.Background(), "failed to check permissions", logger.String("user", ctx.Msg.Author.ID), logger.Error(err))
			return
		}
		if perms&discordgo.PermissionManageRoles != discordgo.PermissionManageRoles {
			b.replyDel(context.Background(), ctx.Ses, ctx.Msg, "You need to have Manage Roles perms to use this command.", nil)
			return
		}
		next(ctx)
	}
}

// pingCommand - liveness check
func (b *Bot) pingCommand(ctx *exrouter.Context) {
	b.replyDel(context.Background(), ctx.Ses, ctx.Msg, "pong", nil)
}

// cooldownCommand - !cooldown @user... clears verification cooldowns
func (b *Bot) cooldownCommand(ctx *exrouter.Context) {
	if len(ctx.Msg.Mentions) == 0 {
		b.replyDel(context.Background(), ctx.Ses, ctx.Msg, "Please include at least one user mention.", nil)
		return
	}
	cleared := b.ClearCooldowns(ctx.Msg.Mentions)
	b.replyDel(context.Background(), ctx.Ses, ctx.Msg, fmt.Sprintf("Cleared the cooldown for %v users.", cleared), nil)
}

// rosterCommand - !roster reads the roster once and reports its size
func (b *Bot) rosterCommand(ctx *exrouter.Context) {
	b.replyDel(context.Background(), ctx.Ses, ctx.Msg, b.RosterSummary(context.Background()), nil)
}

// ClearCooldowns - forget the last attempt of each user, returns how many had one
func (b *Bot) ClearCooldowns(users []*discordgo.User) int {
	var cleared int
	for _, u := range users {
		if _, ok := b.limiter.Last(u.ID); ok {
			cleared++
		}
		b.limiter.Reset(u.ID)
	}
	return cleared
}

// RosterSummary - one-line report of a fresh roster read
func (b *Bot) RosterSummary(ctx context.Context) string {
	fetchCtx, cancel := context.WithTimeout(ctx, b.rosterTimeout)
	defer cancel()

	rows, err := b.roster.Rows(fetchCtx)
	if err != nil {
		b.log.Error(ctx, "roster check failed", logger.Error(err))
		return fmt.Sprintf("Failed to read the roster.\n```%v```", err)
	}
	if len(rows) == 0 {
		return msgNoData
	}
	return fmt.Sprintf("Roster has %v students.", len(rows))
}
