package handlers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/cufee/botto-verify/logger"
	"github.com/cufee/botto-verify/roster"
)

type sentMessage struct {
	ChannelID string
	Content   string
	ReplyTo   string
}

type fakeSession struct {
	mu sync.Mutex

	roles    []*discordgo.Role
	channels []*discordgo.Channel

	rolesErr  error
	addErr    error
	removeErr error
	sendErr   error
	deleteErr error

	added   []string
	removed []string
	sent    []sentMessage
	deleted []string
	nextID  int
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		roles: []*discordgo.Role{
			{ID: "r-unverified", Name: "Unverified"},
			{ID: "r-verified", Name: "ka-CpE"},
		},
		channels: []*discordgo.Channel{
			{ID: "c-general", Name: "general", Type: discordgo.ChannelTypeGuildText},
			{ID: "c-verify", Name: "verify", Type: discordgo.ChannelTypeGuildText},
		},
	}
}

func (f *fakeSession) GuildRoles(string, ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.roles, f.rolesErr
}

func (f *fakeSession) GuildChannels(string, ...discordgo.RequestOption) ([]*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.channels, nil
}

func (f *fakeSession) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.channels {
		if c.ID == channelID {
			return c, nil
		}
	}
	return nil, errors.New("unknown channel")
}

func (f *fakeSession) GuildMemberRoleAdd(_, _, roleID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, roleID)
	return nil
}

func (f *fakeSession) GuildMemberRoleRemove(_, _, roleID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, roleID)
	return nil
}

func (f *fakeSession) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return f.send(channelID, content, "")
}

func (f *fakeSession) ChannelMessageSendReply(channelID, content string, ref *discordgo.MessageReference, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return f.send(channelID, content, ref.MessageID)
}

func (f *fakeSession) send(channelID, content, replyTo string) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.nextID++
	f.sent = append(f.sent, sentMessage{ChannelID: channelID, Content: content, ReplyTo: replyTo})
	return &discordgo.Message{ID: fmt.Sprintf("reply-%d", f.nextID), ChannelID: channelID}, nil
}

func (f *fakeSession) ChannelMessageDelete(_, messageID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return f.deleteErr
}

func (f *fakeSession) Added() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.added...)
}

func (f *fakeSession) Removed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.removed...)
}

func (f *fakeSession) Sent() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeSession) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

// waitDeleted polls until at least n deletes happened or the deadline passes.
func (f *fakeSession) waitDeleted(n int) []string {
	deadline := time.Now().Add(2 * time.Second)
	for {
		deleted := f.Deleted()
		if len(deleted) >= n || time.Now().After(deadline) {
			return deleted
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type fakeRoster struct {
	mu    sync.Mutex
	rows  []roster.Row
	err   error
	calls int
}

func (r *fakeRoster) Rows(context.Context) ([]roster.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.rows, r.err
}

func (r *fakeRoster) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type logEntry struct {
	Level string
	Msg   string
}

type recordingLogger struct {
	mu      *sync.Mutex
	entries *[]logEntry
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{mu: &sync.Mutex{}, entries: &[]logEntry{}}
}

func (l *recordingLogger) record(level, msg string) {
	l.mu.Lock()
	*l.entries = append(*l.entries, logEntry{Level: level, Msg: msg})
	l.mu.Unlock()
}

func (l *recordingLogger) Info(_ context.Context, msg string, _ ...logger.Field) {
	l.record("info", msg)
}

func (l *recordingLogger) Warn(_ context.Context, msg string, _ ...logger.Field) {
	l.record("warn", msg)
}

func (l *recordingLogger) Error(_ context.Context, msg string, _ ...logger.Field) {
	l.record("error", msg)
}

func (l *recordingLogger) Debug(_ context.Context, msg string, _ ...logger.Field) {
	l.record("debug", msg)
}

func (l *recordingLogger) Named(string) logger.Logger { return l }

func (l *recordingLogger) Count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range *l.entries {
		if e.Level == level {
			n++
		}
	}
	return n
}
