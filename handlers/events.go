package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/cufee/botto-verify/logger"
	"github.com/cufee/botto-verify/metrics"
	"github.com/cufee/botto-verify/roster"
)

// Replies shown in the verify channel
const (
	msgWelcome     = "Welcome %s! Please type your Student ID here to get verified."
	msgNoData      = "⚠️ No student data found."
	msgNotFound    = "❌ Student ID not found. Please check your ID and try again."
	msgVerified    = "✅ Verified! Welcome, %s."
	msgUnavailable = "⚠️ Verification system is temporarily unavailable."
)

// MemberJoin - give a new member the unverified role and greet them in the verify channel
func (b *Bot) MemberJoin(s Session, e *discordgo.GuildMemberAdd) {
	if e.Member == nil || e.User == nil {
		return
	}
	ctx := context.Background()
	b.metrics.Join()
	fields := []logger.Field{logger.String("guild", e.GuildID), logger.String("user", e.User.ID)}

	roles, err := s.GuildRoles(e.GuildID)
	if err != nil {
		b.log.Error(ctx, "failed to get guild roles", append(fields, logger.Error(err))...)
	} else if role := b.findRole(ctx, roles, b.unverifiedRole); role != nil {
		if err := s.GuildMemberRoleAdd(e.GuildID, e.User.ID, role.ID); err != nil {
			b.log.Error(ctx, "failed to add unverified role", append(fields, logger.Error(err))...)
		}
	}

	channels, err := s.GuildChannels(e.GuildID)
	if err != nil {
		b.log.Error(ctx, "failed to get guild channels", append(fields, logger.Error(err))...)
		return
	}
	channel := b.findChannel(ctx, channels, b.verifyChannel)
	if channel == nil {
		return
	}
	if _, err := s.ChannelMessageSend(channel.ID, fmt.Sprintf(msgWelcome, e.User.Mention())); err != nil {
		b.log.Error(ctx, "failed to send welcome message", append(fields, logger.Error(err))...)
	}
}

// VerifyMessage - treat a message in the verify channel as a student ID and grant roles on a roster match
func (b *Bot) VerifyMessage(s Session, e *discordgo.MessageCreate) {
	// Ignore bots, including self
	if e.Author == nil || e.Author.Bot {
		return
	}
	if !b.inVerifyChannel(s, e.ChannelID) {
		return
	}

	ctx := context.Background()
	fields := []logger.Field{
		logger.String("attempt", uuid.NewString()),
		logger.String("guild", e.GuildID),
		logger.String("user", e.Author.ID),
	}

	if !b.limiter.CheckAndRecord(e.Author.ID, b.clock.Now()) {
		b.metrics.Attempt(metrics.OutcomeCooldown)
		if err := s.ChannelMessageDelete(e.ChannelID, e.ID); err != nil {
			b.log.Debug(ctx, "failed to delete message during cooldown", append(fields, logger.Error(err))...)
		}
		return
	}

	candidate := roster.Normalize(e.Content)

	fetchCtx, cancel := context.WithTimeout(ctx, b.rosterTimeout)
	started := b.clock.Now()
	rows, err := b.roster.Rows(fetchCtx)
	cancel()
	b.metrics.RosterFetch(b.clock.Since(started))

	if err != nil {
		b.log.Error(ctx, "verification error", append(fields, logger.Error(err))...)
		b.metrics.Attempt(metrics.OutcomeError)
		b.replyDel(ctx, s, e.Message, msgUnavailable, fields)
		return
	}
	if len(rows) == 0 {
		b.log.Info(ctx, "roster is empty", fields...)
		b.metrics.Attempt(metrics.OutcomeNoData)
		b.replyDel(ctx, s, e.Message, msgNoData, fields)
		return
	}

	student, ok := roster.Find(rows, candidate)
	if !ok {
		b.log.Info(ctx, "student id not found", append(fields, logger.String("input", candidate))...)
		b.metrics.Attempt(metrics.OutcomeNotFound)
		b.replyDel(ctx, s, e.Message, msgNotFound, fields)
		return
	}

	b.grantVerified(ctx, s, e.GuildID, e.Author.ID, fields)

	name := student.Name()
	if strings.TrimSpace(name) == "" {
		name = e.Author.Username
	}
	b.log.Info(ctx, "member verified", append(fields, logger.String("student", student.ID()))...)
	b.metrics.Attempt(metrics.OutcomeVerified)
	b.replyDel(ctx, s, e.Message, fmt.Sprintf(msgVerified, name), fields)
}

// grantVerified - add the verified role and remove the unverified one, independently
func (b *Bot) grantVerified(ctx context.Context, s Session, guildID, userID string, fields []logger.Field) {
	roles, err := s.GuildRoles(guildID)
	if err != nil {
		b.log.Error(ctx, "failed to get guild roles", append(fields, logger.Error(err))...)
		return
	}

	if role := b.findRole(ctx, roles, b.verifiedRole); role != nil {
		if err := s.GuildMemberRoleAdd(guildID, userID, role.ID); err != nil {
			b.log.Error(ctx, "failed to add verified role", append(fields, logger.Error(err))...)
		}
	}
	if role := b.findRole(ctx, roles, b.unverifiedRole); role != nil {
		if err := s.GuildMemberRoleRemove(guildID, userID, role.ID); err != nil {
			b.log.Error(ctx, "failed to remove unverified role", append(fields, logger.Error(err))...)
		}
	}
}

func (b *Bot) inVerifyChannel(s Session, channelID string) bool {
	channel, err := s.Channel(channelID)
	if err != nil {
		b.log.Debug(context.Background(), "failed to resolve channel", logger.String("channel", channelID), logger.Error(err))
		return false
	}
	return channel.Name == b.verifyChannel
}
