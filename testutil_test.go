package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap/zaptest"
)

// fakeChat records what the bot sends instead of talking to Discord.
// DM channels are "dm-<user id>".
type fakeChat struct {
	mu            sync.Mutex
	sent          map[string][]string
	threadMembers map[string][]string
	failThreads   bool
}

func newFakeChat() *fakeChat {
	return &fakeChat{sent: map[string][]string{}, threadMembers: map[string][]string{}}
}

func (f *fakeChat) ChannelMessageSend(channelID string, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[channelID] = append(f.sent[channelID], content)
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (f *fakeChat) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return &discordgo.Channel{ID: "dm-" + recipientID, Type: discordgo.ChannelTypeDM}, nil
}

func (f *fakeChat) ThreadStartComplex(channelID string, data *discordgo.ThreadStart, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failThreads {
		return nil, fmt.Errorf("missing permissions")
	}
	id := channelID + "-thread"
	f.threadMembers[id] = nil
	return &discordgo.Channel{ID: id, Name: data.Name, Type: data.Type}, nil
}

func (f *fakeChat) ThreadMemberAdd(threadID, memberID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threadMembers[threadID] = append(f.threadMembers[threadID], memberID)
	return nil
}

func (f *fakeChat) User(userID string, _ ...discordgo.RequestOption) (*discordgo.User, error) {
	return &discordgo.User{ID: userID, Username: "user" + userID}, nil
}

func (f *fakeChat) messages(channelID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent[channelID]...)
}

// waitFor polls until a message containing substr reaches channelID.
func (f *fakeChat) waitFor(t *testing.T, channelID, substr string) string {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		for _, m := range f.messages(channelID) {
			if strings.Contains(m, substr) {
				return m
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("no message containing %q in %s, got %q", substr, channelID, f.messages(channelID))
	return ""
}

var dbCounter atomic.Int64

// memoryDSN names a private in-memory database per call.
func memoryDSN() string {
	return fmt.Sprintf("file:werewolfbot-test-%d?mode=memory&cache=shared", dbCounter.Add(1))
}

// TestContext holds a fully wired app backed by an in-memory database and a fake chat.
type TestContext struct {
	t    *testing.T
	app  *app
	chat *fakeChat
}

func testConfig() AppConfig {
	cfg := defaultConfig()
	cfg.DB = memoryDSN()
	cfg.PresetsFile = ""
	cfg.SendRate = 1000
	cfg.NightSeconds = 5
	cfg.DiscussionSeconds = 1
	cfg.VotingSeconds = 5
	cfg.GraceSeconds = 0
	cfg.RevengeSeconds = 1
	return cfg
}

func newTestContext(t *testing.T, cfg AppConfig) *TestContext {
	t.Helper()
	chat := newFakeChat()
	a, err := newApp(cfg, chat, zaptest.NewLogger(t).Sugar())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	a.hub.start()
	tc := &TestContext{t: t, app: a, chat: chat}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.shutdown(ctx)
	})
	return tc
}

// say delivers a command as if userID typed it. An empty channelID is a DM.
func (tc *TestContext) say(userID, channelID, content string) {
	m := &discordgo.Message{
		ChannelID: channelID,
		GuildID:   "guild",
		Author:    &discordgo.User{ID: userID},
		Content:   content,
	}
	if channelID == "" {
		m.ChannelID = "dm-" + userID
		m.GuildID = ""
	}
	tc.app.bot.handle(context.Background(), m)
}
