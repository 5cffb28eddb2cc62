package handlers

import (
	"context"
	"time"

	"github.com/Necroforger/dgrouter/exrouter"
	"github.com/bwmarrin/discordgo"
	"github.com/jonboulle/clockwork"

	"github.com/cufee/botto-verify/config"
	"github.com/cufee/botto-verify/cooldown"
	"github.com/cufee/botto-verify/logger"
	"github.com/cufee/botto-verify/metrics"
	"github.com/cufee/botto-verify/roster"
)

// Session - the Discord calls the handlers make. *discordgo.Session satisfies it.
type Session interface {
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendReply(channelID, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
}

// Bot - verification bot state shared by all handlers
type Bot struct {
	verifyChannel  string
	verifiedRole   string
	unverifiedRole string
	replyTTL       time.Duration
	rosterTimeout  time.Duration
	prefix         string

	roster  roster.Source
	limiter *cooldown.Limiter
	clock   clockwork.Clock
	log     logger.Logger
	metrics metrics.Recorder
	router  *exrouter.Route
}

// Option - Bot setting
type Option func(*Bot)

// WithConfig - names, timings and command prefix from the loaded config
func WithConfig(cfg *config.Config) Option {
	return func(b *Bot) {
		b.verifyChannel = cfg.VerifyChannel
		b.verifiedRole = cfg.VerifiedRole
		b.unverifiedRole = cfg.UnverifiedRole
		b.replyTTL = cfg.ReplyTTL
		b.rosterTimeout = cfg.RosterTimeout
		b.prefix = cfg.CommandPrefix
	}
}

// WithClock - clock used for cooldowns and delayed deletes
func WithClock(c clockwork.Clock) Option {
	return func(b *Bot) { b.clock = c }
}

// WithLogger - logger for handler events
func WithLogger(l logger.Logger) Option {
	return func(b *Bot) { b.log = l }
}

// WithMetrics - recorder for outcomes
func WithMetrics(m metrics.Recorder) Option {
	return func(b *Bot) { b.metrics = m }
}

// New - bot reading src and rate limited by limiter
func New(src roster.Source, limiter *cooldown.Limiter, opts ...Option) *Bot {
	b := &Bot{
		roster:  src,
		limiter: limiter,
		clock:   clockwork.NewRealClock(),
		log:     logger.Nop(),
		metrics: metrics.Nop{},
	}
	WithConfig(config.New())(b)
	for _, opt := range opts {
		opt(b)
	}
	b.router = b.commands()
	return b
}

// Register - attach the event handlers to a session
func (b *Bot) Register(dg *discordgo.Session) {
	s := cachedSession{dg}

	dg.AddHandler(func(_ *discordgo.Session, e *discordgo.GuildMemberAdd) {
		b.MemberJoin(s, e)
	})
	dg.AddHandler(func(ds *discordgo.Session, e *discordgo.MessageCreate) {
		b.VerifyMessage(s, e)
		b.RouteCommand(ds, e)
	})
	dg.AddHandler(func(_ *discordgo.Session, e *discordgo.Ready) {
		b.log.Info(context.Background(), "connected", logger.String("user", e.User.Username), logger.Int("guilds", len(e.Guilds)))
	})
}
