package handlers

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/cufee/botto-verify/logger"
)

// replyDel - reply to m, then delete both the reply and m after the reply TTL.
// Pending deletes are dropped if the process exits first.
func (b *Bot) replyDel(ctx context.Context, s Session, m *discordgo.Message, content string, fields []logger.Field) {
	reply, err := s.ChannelMessageSendReply(m.ChannelID, content, m.Reference())
	if err != nil {
		b.log.Error(ctx, "failed to send reply", append(fields, logger.Error(err))...)
		reply = nil
	}

	b.clock.AfterFunc(b.replyTTL, func() {
		if reply != nil {
			if err := s.ChannelMessageDelete(reply.ChannelID, reply.ID); err != nil {
				b.log.Debug(ctx, "failed to delete reply", append(fields, logger.Error(err))...)
			}
		}
		if err := s.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
			b.log.Debug(ctx, "failed to delete message", append(fields, logger.Error(err))...)
		}
	})
}

// findRole - first role named name, in the order the guild lists them
func (b *Bot) findRole(ctx context.Context, roles []*discordgo.Role, name string) *discordgo.Role {
	var found *discordgo.Role
	matches := 0
	for _, r := range roles {
		if r.Name != name {
			continue
		}
		if found == nil {
			found = r
		}
		matches++
	}
	if matches > 1 {
		b.log.Warn(ctx, "role name is ambiguous, using the first match", logger.String("role", name), logger.Int("matches", matches))
	}
	return found
}

// findChannel - first text channel named name
func (b *Bot) findChannel(ctx context.Context, channels []*discordgo.Channel, name string) *discordgo.Channel {
	var found *discordgo.Channel
	matches := 0
	for _, c := range channels {
		if c.Name != name || c.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		if found == nil {
			found = c
		}
		matches++
	}
	if matches > 1 {
		b.log.Warn(ctx, "channel name is ambiguous, using the first match", logger.String("channel", name), logger.Int("matches", matches))
	}
	return found
}

// cachedSession - answer role and channel lookups from the gateway state when it has them
type cachedSession struct {
	*discordgo.Session
}

func (c cachedSession) GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	if g, err := c.State.Guild(guildID); err == nil {
		c.State.RLock()
		defer c.State.RUnlock()
		return append([]*discordgo.Role(nil), g.Roles...), nil
	}
	return c.Session.GuildRoles(guildID, options...)
}

func (c cachedSession) GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error) {
	if g, err := c.State.Guild(guildID); err == nil {
		c.State.RLock()
		defer c.State.RUnlock()
		return append([]*discordgo.Channel(nil), g.Channels...), nil
	}
	return c.Session.GuildChannels(guildID, options...)
}

func (c cachedSession) Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if ch, err := c.State.Channel(channelID); err == nil {
		return ch, nil
	}
	return c.Session.Channel(channelID, options...)
}
