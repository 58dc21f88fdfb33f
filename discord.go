package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"werewolfbot/internal/game"
)

// Discord rejects messages longer than this.
const maxMessageLength = 2000

// chatAPI is the part of *discordgo.Session the bot uses.
type chatAPI interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ThreadStartComplex(channelID string, data *discordgo.ThreadStart, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ThreadMemberAdd(threadID, memberID string, options ...discordgo.RequestOption) error
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
}

// Bot is the Discord transport. It renders game messages, routes commands
// to the registry and answers pending revenge prompts.
type Bot struct {
	api      chatAPI
	registry *game.Registry
	lobby    *Lobby
	store    *Store
	catalog  *game.RoleCatalog
	prefix   string
	limiter  *rate.Limiter
	log      *zap.SugaredLogger

	mu      sync.Mutex
	dms     map[string]string // player id -> DM channel id
	names   map[string]string
	pending map[string]chan string // player id -> answer of an open RequestConfirmation
}

func newBot(api chatAPI, cfg AppConfig, catalog *game.RoleCatalog, log *zap.SugaredLogger) *Bot {
	perSecond := max(cfg.SendRate, 1)
	return &Bot{
		api:     api,
		catalog: catalog,
		prefix:  cfg.CommandPrefix,
		limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
		log:     log,
		dms:     map[string]string{},
		names:   map[string]string{},
		pending: map[string]chan string{},
	}
}

// ============================================================================
// Notifier
// ============================================================================

func (b *Bot) Broadcast(ctx context.Context, channelID string, msg game.Message) error {
	return b.send(ctx, channelID, render(msg))
}

func (b *Bot) SendPrivate(ctx context.Context, playerID string, msg game.Message) error {
	ch, err := b.dmChannel(playerID)
	if err != nil {
		return err
	}
	return b.send(ctx, ch, render(msg))
}

// OpenFactionChannel starts a private thread under channelID and adds the members.
func (b *Bot) OpenFactionChannel(ctx context.Context, channelID string, faction game.Faction, playerIDs []string) (string, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return "", err
	}
	thread, err := b.api.ThreadStartComplex(channelID, &discordgo.ThreadStart{
		Name:                fmt.Sprintf("%s den", faction),
		Type:                discordgo.ChannelTypeGuildPrivateThread,
		AutoArchiveDuration: 60 * 24,
		Invitable:           false,
	})
	if err != nil {
		return "", fmt.Errorf("start %s thread in %s: %w", faction, channelID, err)
	}
	for _, id := range playerIDs {
		if err := b.api.ThreadMemberAdd(thread.ID, id); err != nil {
			return "", fmt.Errorf("add %s to thread %s: %w", id, thread.ID, err)
		}
	}
	b.log.Infof("Opened %s thread %s in %s for %d players", faction, thread.ID, channelID, len(playerIDs))
	return thread.ID, nil
}

// RequestConfirmation DMs the prompt and waits for a !pick from the player.
func (b *Bot) RequestConfirmation(ctx context.Context, playerID string, prompt game.Prompt, timeout time.Duration) (string, error) {
	answer := make(chan string, 1)
	b.mu.Lock()
	b.pending[playerID] = answer
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		if b.pending[playerID] == answer {
			delete(b.pending, playerID)
		}
		b.mu.Unlock()
	}()

	text := prompt.Text + "\n" + optionList(prompt.Options) +
		fmt.Sprintf("\nReply with `%spick @player` within %s, or `%spick pass`.", b.prefix, timeout.Round(time.Second), b.prefix)
	ch, err := b.dmChannel(playerID)
	if err != nil {
		return "", err
	}
	if err := b.send(ctx, ch, text); err != nil {
		return "", err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case choice := <-answer:
		if choice == "" || slices.ContainsFunc(prompt.Options, func(v game.PlayerView) bool { return v.ID == choice }) {
			return choice, nil
		}
		return "", nil
	case <-timer.C:
		return "", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// DisplayName resolves and caches a user's display name.
func (b *Bot) DisplayName(_ context.Context, playerID string) (string, error) {
	b.mu.Lock()
	name, ok := b.names[playerID]
	b.mu.Unlock()
	if ok {
		return name, nil
	}
	u, err := b.api.User(playerID)
	if err != nil {
		return "", err
	}
	name = u.GlobalName
	if name == "" {
		name = u.Username
	}
	b.mu.Lock()
	b.names[playerID] = name
	b.mu.Unlock()
	return name, nil
}

func (b *Bot) dmChannel(playerID string) (string, error) {
	b.mu.Lock()
	ch, ok := b.dms[playerID]
	b.mu.Unlock()
	if ok {
		return ch, nil
	}
	c, err := b.api.UserChannelCreate(playerID)
	if err != nil {
		return "", fmt.Errorf("open DM with %s: %w", playerID, err)
	}
	b.mu.Lock()
	b.dms[playerID] = c.ID
	b.mu.Unlock()
	return c.ID, nil
}

// send splits content into messages Discord accepts and throttles them.
func (b *Bot) send(ctx context.Context, channelID, content string) error {
	for _, part := range splitMessage(content, maxMessageLength) {
		if err := b.limiter.Wait(ctx); err != nil {
			return err
		}
		if _, err := b.api.ChannelMessageSend(channelID, part); err != nil {
			return fmt.Errorf("send to %s: %w", channelID, err)
		}
	}
	return nil
}

// reply is send for command answers, where failures are only logged.
func (b *Bot) reply(channelID, content string) {
	if err := b.send(context.Background(), channelID, content); err != nil {
		b.log.Warnf("reply in %s: %v", channelID, err)
	}
}

func (b *Bot) replyPrivate(playerID, content string) {
	ch, err := b.dmChannel(playerID)
	if err != nil {
		b.log.Warnf("reply to %s: %v", playerID, err)
		return
	}
	b.reply(ch, content)
}

func splitMessage(s string, limit int) []string {
	var parts []string
	for len(s) > limit {
		cut := strings.LastIndexByte(s[:limit], '\n')
		if cut <= 0 {
			cut = limit
			for cut > 1 && !utf8.RuneStart(s[cut]) {
				cut--
			}
		}
		parts = append(parts, s[:cut])
		s = strings.TrimLeft(s[cut:], "\n")
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}

func mention(id string) string { return "<@" + id + ">" }

func optionList(options []game.PlayerView) string {
	var sb strings.Builder
	for i, o := range options {
		fmt.Fprintf(&sb, "%d. %s (%s)\n", i+1, o.Name, mention(o.ID))
	}
	return sb.String()
}

func render(msg game.Message) string {
	var sb strings.Builder
	switch msg.Kind {
	case game.MsgMatchStart:
		sb.WriteString("**A new match begins.** ")
	case game.MsgNightStart:
		fmt.Fprintf(&sb, "**Night %d.** ", msg.Round)
	case game.MsgDayStart:
		fmt.Fprintf(&sb, "**Day %d.** ", msg.Round)
	case game.MsgVotingStart:
		sb.WriteString("**Voting is open.** ")
	case game.MsgGameOver:
		sb.WriteString("**Game over.** ")
	case msgStory:
		sb.WriteString("*")
		sb.WriteString(msg.Text)
		sb.WriteString("*")
		return sb.String()
	}
	sb.WriteString(msg.Text)

	if len(msg.Targets) > 0 {
		sb.WriteString("\n")
		sb.WriteString(optionList(msg.Targets))
	}
	if msg.Lynch != nil && len(msg.Lynch.Tally) > 0 {
		sb.WriteString("\nVotes:")
		ids := make([]string, 0, len(msg.Lynch.Tally))
		for id := range msg.Lynch.Tally {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			fmt.Fprintf(&sb, " %s: %d", mention(id), msg.Lynch.Tally[id])
		}
	}
	if msg.Kind == game.MsgGameOver || msg.Kind == game.MsgCancelled {
		for _, p := range msg.Players {
			status := "alive"
			if !p.Alive {
				status = "dead"
			}
			fmt.Fprintf(&sb, "\n- %s: %s (%s)", p.Name, p.Role, status)
		}
	}
	return sb.String()
}

// ============================================================================
// Commands
// ============================================================================

func (b *Bot) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	b.handle(context.Background(), m.Message)
}

func (b *Bot) handle(ctx context.Context, m *discordgo.Message) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	content := strings.TrimSpace(m.Content)
	if !strings.HasPrefix(content, b.prefix) {
		return
	}
	args := strings.Fields(strings.TrimPrefix(content, b.prefix))
	if len(args) == 0 {
		return
	}
	cmd := strings.ToLower(args[0])
	args = args[1:]
	b.log.Debugf("Command %q from %s in %s", cmd, m.Author.ID, m.ChannelID)

	direct := m.GuildID == ""
	switch cmd {
	case "help":
		b.reply(m.ChannelID, b.help())
	case "act":
		b.cmdAct(m, args, direct)
	case "pick":
		b.cmdPick(m, args)
	case "wallet":
		b.cmdWallet(ctx, m)
	default:
		if direct {
			b.reply(m.ChannelID, fmt.Sprintf("`%s%s` only works in a server channel.", b.prefix, cmd))
			return
		}
		b.channelCommand(ctx, m, cmd, args)
	}
}

func (b *Bot) channelCommand(ctx context.Context, m *discordgo.Message, cmd string, args []string) {
	switch cmd {
	case "join":
		added, err := b.lobby.Join(ctx, m.ChannelID, m.Author.ID)
		switch {
		case err != nil:
			b.reply(m.ChannelID, "Could not join right now.")
		case added:
			b.reply(m.ChannelID, mention(m.Author.ID)+" joined the gathering.")
		default:
			b.reply(m.ChannelID, mention(m.Author.ID)+" is already gathered.")
		}
	case "leave":
		removed, err := b.lobby.Leave(ctx, m.ChannelID, m.Author.ID)
		switch {
		case err != nil:
			b.reply(m.ChannelID, "Could not leave right now.")
		case removed:
			b.reply(m.ChannelID, mention(m.Author.ID)+" left the gathering.")
		default:
			b.reply(m.ChannelID, mention(m.Author.ID)+" was not gathered.")
		}
	case "roles":
		b.cmdRoles(ctx, m)
	case "role":
		b.cmdRole(ctx, m, args)
	case "start":
		b.cmdStart(ctx, m)
	case "abort":
		if err := b.registry.Abort(m.ChannelID); err != nil {
			b.reply(m.ChannelID, err.Error())
		}
	case "vote":
		b.cmdVote(m, args)
	case "status":
		b.cmdStatus(ctx, m)
	case "history":
		b.cmdHistory(ctx, m)
	default:
		b.reply(m.ChannelID, fmt.Sprintf("Unknown command. Try `%shelp`.", b.prefix))
	}
}

func (b *Bot) help() string {
	p := b.prefix
	return "**Werewolf commands**\n" +
		"- `" + p + "join` / `" + p + "leave`: join or leave the gathering in this channel\n" +
		"- `" + p + "roles`: show roles and the counts used here\n" +
		"- `" + p + "role <name> <+1|-1>`: change how many of a role are dealt, `" + p + "role reset` to undo\n" +
		"- `" + p + "start` / `" + p + "abort`: start or abort the match in this channel\n" +
		"- `" + p + "act <kind> @player` (DM only): submit your night action, `pass` to skip\n" +
		"- `" + p + "vote @player`: vote during the voting window, `pass` to abstain\n" +
		"- `" + p + "pick @player`: answer a last-shot prompt\n" +
		"- `" + p + "status`, `" + p + "wallet`, `" + p + "history`"
}

// resolveTarget accepts a mention, a raw id, a display name or "pass".
func resolveTarget(s *game.Session, arg string) (string, bool) {
	switch strings.ToLower(arg) {
	case "pass", "none", "skip":
		return "", true
	}
	id := strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(arg, "<@"), "!"), ">")
	if s.HasPlayer(id) {
		return id, true
	}
	for _, p := range s.Players() {
		if strings.EqualFold(p.Name, arg) {
			return p.ID, true
		}
	}
	return "", false
}

func (b *Bot) cmdAct(m *discordgo.Message, args []string, direct bool) {
	if !direct {
		b.replyPrivate(m.Author.ID, fmt.Sprintf("Send night actions to me here, not in the channel: `%sact <kind> @player`.", b.prefix))
		return
	}
	s, ok := b.registry.FindByPlayer(m.Author.ID)
	if !ok {
		b.reply(m.ChannelID, "You are not in a running match.")
		return
	}
	if len(args) == 0 {
		b.reply(m.ChannelID, fmt.Sprintf("Usage: `%sact <kind> @player` or `%sact <kind> pass`.", b.prefix, b.prefix))
		return
	}
	kind := game.ActionKind(strings.ToLower(args[0]))
	target := ""
	if len(args) > 1 {
		id, ok := resolveTarget(s, strings.Join(args[1:], " "))
		if !ok {
			b.reply(m.ChannelID, "I don't know that player.")
			return
		}
		target = id
	}
	if err := s.SubmitAction(m.Author.ID, kind, target); err != nil {
		b.reply(m.ChannelID, "Not accepted: "+err.Error())
		return
	}
	if target == "" {
		b.reply(m.ChannelID, "You pass tonight.")
		return
	}
	b.reply(m.ChannelID, fmt.Sprintf("Got it: %s %s. You can change it until the night ends.", kind, mention(target)))
}

func (b *Bot) cmdVote(m *discordgo.Message, args []string) {
	s, ok := b.registry.Lookup(m.ChannelID)
	if !ok {
		b.reply(m.ChannelID, game.ErrNoSession.Error())
		return
	}
	if len(args) == 0 {
		b.reply(m.ChannelID, fmt.Sprintf("Usage: `%svote @player` or `%svote pass`.", b.prefix, b.prefix))
		return
	}
	target, ok := resolveTarget(s, strings.Join(args, " "))
	if !ok {
		b.reply(m.ChannelID, "I don't know that player.")
		return
	}
	if err := s.SubmitVote(m.Author.ID, target); err != nil {
		b.replyPrivate(m.Author.ID, "Vote not accepted: "+err.Error())
		return
	}
	if target == "" {
		b.reply(m.ChannelID, mention(m.Author.ID)+" abstains.")
		return
	}
	b.reply(m.ChannelID, mention(m.Author.ID)+" votes for "+mention(target)+".")
}

func (b *Bot) cmdPick(m *discordgo.Message, args []string) {
	b.mu.Lock()
	answer, ok := b.pending[m.Author.ID]
	b.mu.Unlock()
	if !ok {
		b.reply(m.ChannelID, "Nothing is waiting for your pick.")
		return
	}
	choice := ""
	if len(args) > 0 {
		if s, found := b.registry.FindByPlayer(m.Author.ID); found {
			if id, known := resolveTarget(s, strings.Join(args, " ")); known {
				choice = id
			}
		}
	}
	select {
	case answer <- choice:
		b.reply(m.ChannelID, "Your choice is made.")
	default:
		b.reply(m.ChannelID, "You already chose.")
	}
}

func (b *Bot) cmdRoles(ctx context.Context, m *discordgo.Message) {
	roles, err := b.store.Roles(ctx)
	if err != nil {
		b.log.Errorf("cmdRoles: %v", err)
		b.reply(m.ChannelID, "Could not load roles.")
		return
	}
	st, err := b.lobby.Status(ctx, m.ChannelID)
	if err != nil {
		b.log.Errorf("cmdRoles: %v", err)
		b.reply(m.ChannelID, "Could not load this channel's configuration.")
		return
	}
	var sb strings.Builder
	sb.WriteString("**Roles**\n")
	for _, r := range roles {
		fmt.Fprintf(&sb, "- %s ×%d (%s): %s\n", r.Name, st.RoleCounts[game.RoleName(r.Name)], r.Team, r.Description)
	}
	fmt.Fprintf(&sb, "%d gathered, %d roles configured, %d players needed.", len(st.Members), st.TotalRoles, st.MinPlayers)
	if st.TotalRoles != len(st.Members) {
		fmt.Fprintf(&sb, " Missing seats are filled with %s.", b.catalog.Filler().Name)
	}
	b.reply(m.ChannelID, sb.String())
}

// cmdStart seats the gathering. Its members leave the gathering once seated.
func (b *Bot) cmdStart(ctx context.Context, m *discordgo.Message) {
	if _, err := b.registry.Start(ctx, m.ChannelID, nil); err != nil {
		b.reply(m.ChannelID, "Cannot start: "+err.Error())
		return
	}
	_ = b.lobby.Clear(ctx, m.ChannelID)
}

func (b *Bot) cmdRole(ctx context.Context, m *discordgo.Message, args []string) {
	if len(args) == 1 && strings.EqualFold(args[0], "reset") {
		if err := b.store.ResetRoleCounts(ctx, m.ChannelID); err != nil {
			b.log.Errorf("cmdRole: %v", err)
			b.reply(m.ChannelID, "Could not reset the role counts.")
			return
		}
		b.reply(m.ChannelID, "Role counts reset to the channel defaults.")
		return
	}
	if len(args) != 2 {
		b.reply(m.ChannelID, fmt.Sprintf("Usage: `%srole <name> <+1|-1>` or `%srole reset`.", b.prefix, b.prefix))
		return
	}
	def, ok := b.catalog.LookupFold(args[0])
	if !ok {
		b.reply(m.ChannelID, fmt.Sprintf("Unknown role %q.", args[0]))
		return
	}
	delta, err := strconv.Atoi(args[1])
	if err != nil {
		b.reply(m.ChannelID, fmt.Sprintf("%q is not a number.", args[1]))
		return
	}
	count, err := b.store.AdjustRoleCount(ctx, m.ChannelID, def.Name, delta)
	if err != nil {
		b.log.Errorf("cmdRole: %v", err)
		b.reply(m.ChannelID, "Could not update the role count.")
		return
	}
	b.reply(m.ChannelID, fmt.Sprintf("%s ×%d", def.Name, count))
}

func (b *Bot) cmdStatus(ctx context.Context, m *discordgo.Message) {
	s, ok := b.registry.Lookup(m.ChannelID)
	if !ok {
		st, err := b.lobby.Status(ctx, m.ChannelID)
		if err != nil {
			b.reply(m.ChannelID, "No match running.")
			return
		}
		names := make([]string, 0, len(st.Members))
		for _, id := range st.Members {
			names = append(names, mention(id))
		}
		b.reply(m.ChannelID, fmt.Sprintf("No match running. Gathered (%d/%d): %s", len(st.Members), st.MinPlayers, strings.Join(names, ", ")))
		return
	}
	phase, round := s.Phase()
	var sb strings.Builder
	fmt.Fprintf(&sb, "Round %d, %s.\n", round, phase)
	for _, p := range s.Players() {
		if p.Alive {
			fmt.Fprintf(&sb, "- %s: alive\n", p.Name)
		} else {
			fmt.Fprintf(&sb, "- %s: dead, was %s\n", p.Name, p.Role)
		}
	}
	b.reply(m.ChannelID, sb.String())
}

func (b *Bot) cmdWallet(ctx context.Context, m *discordgo.Message) {
	w, err := b.store.Wallet(ctx, m.Author.ID)
	if err != nil {
		b.log.Errorf("cmdWallet: %v", err)
		b.reply(m.ChannelID, "Could not load your wallet.")
		return
	}
	b.reply(m.ChannelID, fmt.Sprintf("%s: %d coins, %d XP (level %d), %d matches.", mention(m.Author.ID), w.Currency, w.Experience, w.Level(), w.GamesPlayed))
}

func (b *Bot) cmdHistory(ctx context.Context, m *discordgo.Message) {
	rows, err := b.store.RecentMatches(ctx, m.ChannelID, 5)
	if err != nil {
		b.log.Errorf("cmdHistory: %v", err)
		b.reply(m.ChannelID, "Could not load match history.")
		return
	}
	if len(rows) == 0 {
		b.reply(m.ChannelID, "No matches played here yet.")
		return
	}
	var sb strings.Builder
	for _, r := range rows {
		result := "draw"
		switch {
		case r.Cancelled:
			result = "cancelled"
		case r.Winner != "":
			result = r.Winner + " won"
		}
		fmt.Fprintf(&sb, "- %s: %s after %d rounds\n", r.EndedAt.Format("2006-01-02 15:04"), result, r.Rounds)
	}
	b.reply(m.ChannelID, sb.String())
}

var errNoToken = errors.New("discord_token is required")
