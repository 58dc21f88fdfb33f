package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// fanOut caps concurrent collaborator calls per session.
const fanOut = 8

// cleanupTimeout bounds the messages sent after a session was cancelled.
const cleanupTimeout = 10 * time.Second

// Session is one match in one channel. A single goroutine runs the phase loop;
// player submissions arrive concurrently through SubmitAction and SubmitVote.
type Session struct {
	ID        string
	ChannelID string
	StartedAt time.Time

	cfg   Config
	deps  Dependencies
	log   *zap.SugaredLogger
	night *NightEngine
	day   *DayEngine

	// mu guards the fields below. The scheduler holds it for writing while it
	// resolves; submissions hold it for reading.
	mu     sync.RWMutex
	phase  Phase
	round  int
	roster *Roster
	warded map[string]string
	winner Faction
	early  chan struct{}

	actions *ActionInbox
	votes   *VoteBox

	// events and failure are only touched by the scheduler goroutine.
	events  []MatchEvent
	failure *InvariantError

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	release func(*Session)
}

func newSession(parent context.Context, id, channelID string, cfg Config, deps Dependencies, roster *Roster, rng *rand.Rand, release func(*Session)) *Session {
	ctx, cancel := context.WithCancel(parent)
	log := deps.Logger.With("session", id, "channel", channelID)
	return &Session{
		ID:        id,
		ChannelID: channelID,
		StartedAt: time.Now(),
		cfg:       cfg,
		deps:      deps,
		log:       log,
		night:     NewNightEngine(rng, log),
		day:       NewDayEngine(rng, log),
		phase:     PhaseStarting,
		roster:    roster,
		warded:    map[string]string{},
		actions:   NewInbox[PendingAction](),
		votes:     NewInbox[Vote](),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		release:   release,
	}
}

// Done is closed when the scheduler goroutine has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// Phase returns the current phase and round.
func (s *Session) Phase() (Phase, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase, s.round
}

// Winner returns the winning faction once the match is over.
func (s *Session) Winner() (Faction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.winner, s.phase == PhaseGameOver
}

// HasPlayer reports whether id is seated in this match. The seat set never
// changes after creation.
func (s *Session) HasPlayer(id string) bool {
	_, ok := s.roster.Player(id)
	return ok
}

// Players returns a copy of every player in seat order.
func (s *Session) Players() []PlayerView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewsLocked(false)
}

func (s *Session) viewsLocked(livingOnly bool) []PlayerView {
	var out []PlayerView
	for _, p := range s.roster.Players() {
		if livingOnly && !p.Alive() {
			continue
		}
		out = append(out, PlayerView{
			ID:         p.ID,
			Name:       p.Name,
			Role:       p.Role.Name,
			Faction:    p.Faction(),
			Alive:      p.Alive(),
			DeathCause: p.DeathCause,
		})
	}
	return out
}

// SubmitAction records a night action for actorID. An empty targetID
// withdraws into a pass, which still counts toward closing the night early.
func (s *Session) SubmitAction(actorID string, kind ActionKind, targetID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.phase.AcceptsActions() {
		return &InvalidActionError{ActorID: actorID, Reason: "night actions are only accepted at night", Err: ErrWindowClosed}
	}
	actor, ok := s.roster.Player(actorID)
	if !ok {
		return invalidAction(actorID, "you are not in this match")
	}
	if !actor.Alive() {
		return invalidAction(actorID, "dead players cannot act")
	}
	if !actor.Role.HasNightAction() {
		return invalidAction(actorID, "%s has no night action", actor.Role.Name)
	}
	if !actor.canActAtNight() {
		return invalidAction(actorID, "you have nothing left to use tonight")
	}
	a := PendingAction{ActorID: actorID, Kind: kind, TargetID: targetID}
	if targetID != "" {
		if reason := validateNightAction(s.roster, actor, a); reason != "" {
			return invalidAction(actorID, "%s", reason)
		}
		if r, ok := resourceFor(kind); ok && actor.Remaining(r) <= 0 {
			return invalidAction(actorID, "no %s left", r)
		}
	}
	n, err := s.actions.Submit(actorID, a)
	if err != nil {
		return &InvalidActionError{ActorID: actorID, Reason: "the night is over", Err: err}
	}
	s.log.Debugf("round %d: %s submitted %s -> %q", s.round, actorID, kind, targetID)
	if s.cfg.CloseEarly && n >= s.countLocked((*Player).canActAtNight) {
		signal(s.early)
	}
	return nil
}

// SubmitVote records a day vote. An empty targetID is a pass.
func (s *Session) SubmitVote(voterID, targetID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.phase.AcceptsVotes() {
		return &InvalidActionError{ActorID: voterID, Reason: "votes are only accepted while voting is open", Err: ErrWindowClosed}
	}
	voter, ok := s.roster.Player(voterID)
	if !ok {
		return invalidAction(voterID, "you are not in this match")
	}
	if !voter.Alive() {
		return invalidAction(voterID, "dead players cannot vote")
	}
	if targetID != "" {
		target, ok := s.roster.Player(targetID)
		if !ok {
			return invalidAction(voterID, "that player is not in this match")
		}
		if !target.Alive() {
			return invalidAction(voterID, "you cannot vote for a dead player")
		}
	}
	n, err := s.votes.Submit(voterID, Vote{VoterID: voterID, TargetID: targetID})
	if err != nil {
		return &InvalidActionError{ActorID: voterID, Reason: "voting is closed", Err: err}
	}
	s.log.Debugf("round %d: %s voted for %q", s.round, voterID, targetID)
	if s.cfg.CloseEarly && n >= s.countLocked(func(*Player) bool { return true }) {
		signal(s.early)
	}
	return nil
}

func (s *Session) countLocked(match func(*Player) bool) int {
	n := 0
	for _, p := range s.roster.Living() {
		if match(p) {
			n++
		}
	}
	return n
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// abort moves the session to Cancelled, closes both windows and stops the
// pending wait. It does not wait for the scheduler goroutine.
func (s *Session) abort() bool {
	s.mu.Lock()
	aborted := false
	if !s.phase.Terminal() {
		s.phase = PhaseCancelled
		s.actions.Close()
		s.votes.Close()
		aborted = true
	}
	s.mu.Unlock()
	s.cancel()
	return aborted
}

func (s *Session) run() {
	defer close(s.done)
	defer s.release(s)
	defer s.cancel()

	s.log.Infof("match started with %d players", s.roster.Len())
	s.broadcast(Message{Kind: MsgMatchStart, Players: s.publicViews(), Text: fmt.Sprintf("A match of %d players begins. Check your private messages for your role.", s.roster.Len())})
	s.revealRoles()

	for s.playRound() {
	}

	if phase, _ := s.Phase(); phase == PhaseCancelled {
		s.cancelled()
	}
}

// playRound runs one night and one day. It returns false once the session
// has reached a terminal phase.
func (s *Session) playRound() bool {
	early, round, ok := s.openWindow(PhaseNight, s.actions)
	if !ok {
		return false
	}
	s.log.Infof("night %d begins", round)
	s.broadcast(Message{Kind: MsgNightStart, Text: fmt.Sprintf("Night %d falls. Players with night actions, check your private messages.", round)})
	s.promptNightActors(round)
	if err := s.wait(PhaseNight, round, s.cfg.NightDuration, early); err != nil {
		return false
	}

	night, ok := s.resolveNight()
	if !ok {
		return false
	}
	s.announceNight(night)
	s.lastShots(round)
	if s.checkWinner() {
		return false
	}

	if !s.advance(PhaseDay) {
		return false
	}
	s.broadcast(Message{Kind: MsgDayStart, Deaths: night.Deaths, Players: s.publicViews(), Text: fmt.Sprintf("Day %d begins. Discuss.", round)})
	if err := s.wait(PhaseDay, round, s.cfg.DiscussionDuration, nil); err != nil {
		return false
	}

	early, _, ok = s.openWindow(PhaseVoting, s.votes)
	if !ok {
		return false
	}
	s.broadcast(Message{Kind: MsgVotingStart, Targets: s.publicViews(), Text: "Voting is open. Vote for a living player or pass."})
	if err := s.wait(PhaseVoting, round, s.cfg.VotingDuration, early); err != nil {
		return false
	}

	lynch, ok := s.resolveDay()
	if !ok {
		return false
	}
	s.announceLynch(lynch)
	s.lastShots(round)
	return !s.checkWinner()
}

// advance moves to next if the state machine allows it.
func (s *Session) advance(next Phase) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advanceLocked(next)
}

func (s *Session) advanceLocked(next Phase) bool {
	if !s.phase.CanTransitionTo(next) {
		return false
	}
	s.log.Debugf("phase %s -> %s", s.phase, next)
	s.phase = next
	if next == PhaseNight {
		s.round++
	}
	return true
}

type window interface{ Open(round int) }

// openWindow enters a timed phase and starts accepting submissions.
func (s *Session) openWindow(next Phase, w window) (<-chan struct{}, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.advanceLocked(next) {
		return nil, s.round, false
	}
	s.early = make(chan struct{}, 1)
	w.Open(s.round)
	return s.early, s.round, true
}

func (s *Session) wait(phase Phase, round int, d time.Duration, early <-chan struct{}) error {
	err := s.deps.Timer.Wait(s.ctx, phase, round, d, early)
	if err != nil {
		s.log.Debugf("%s %d wait ended: %v", phase, round, err)
	}
	return err
}

func (s *Session) resolveNight() (NightResult, bool) {
	s.mu.Lock()
	if !s.advanceLocked(PhaseNightResolution) {
		s.mu.Unlock()
		return NightResult{}, false
	}
	actions := s.actions.Close()
	res := s.night.Resolve(s.round, s.roster, actions)
	s.warded = res.Warded
	err := s.roster.CheckPartition()
	s.mu.Unlock()
	if err != nil {
		s.fail(err)
		return res, false
	}
	return res, true
}

func (s *Session) resolveDay() (DayResult, bool) {
	s.mu.Lock()
	if !s.advanceLocked(PhaseVotingResolution) {
		s.mu.Unlock()
		return DayResult{}, false
	}
	votes := s.votes.Close()
	res := s.day.Resolve(s.round, s.roster, votes, s.warded)
	err := s.roster.CheckPartition()
	s.mu.Unlock()
	if err != nil {
		s.fail(err)
		return res, false
	}
	return res, true
}

// checkWinner settles outstanding revenge and evaluates the win condition.
// It returns true when the loop must stop.
func (s *Session) checkWinner() bool {
	s.mu.Lock()
	if s.phase.Terminal() {
		s.mu.Unlock()
		return true
	}
	extra := s.roster.settleRevenge(s.round)
	if err := s.roster.CheckPartition(); err != nil {
		s.mu.Unlock()
		s.fail(err)
		return true
	}
	winner, over := EvaluateWinner(s.roster)
	if over {
		s.advanceLocked(PhaseGameOver)
		s.winner = winner
	}
	s.mu.Unlock()

	if len(extra) > 0 {
		s.broadcast(Message{Kind: MsgRevenge, Deaths: extra, Text: s.describeDeaths(extra)})
	}
	if over {
		s.finish(winner)
	}
	return over
}

// fail aborts the session after an internal invariant broke.
func (s *Session) fail(cause error) {
	s.mu.Lock()
	if s.phase.Terminal() {
		s.mu.Unlock()
		return
	}
	s.phase = PhaseCancelled
	s.actions.Close()
	s.votes.Close()
	s.mu.Unlock()
	err := &InvariantError{SessionID: s.ID, Detail: cause.Error()}
	s.failure = err
	s.log.Errorf("aborting match: %v", err)
	s.events = append(s.events, MatchEvent{Round: s.round, Phase: PhaseCancelled, Kind: MsgCancelled, Text: err.Error(), At: time.Now()})
}

// cancelled runs after the loop ended in Cancelled. Windows are already
// closed and no rewards are paid.
func (s *Session) cancelled() {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), cleanupTimeout)
	defer cancel()
	text := "The match was cancelled. No rewards were paid."
	if s.failure != nil {
		text = fmt.Sprintf("The match was cancelled after an internal error: %s. No rewards were paid.", s.failure.Detail)
	}
	msg := s.stamp(Message{Kind: MsgCancelled, Players: s.Players(), Text: text})
	s.record(msg)
	if err := s.deps.Notifier.Broadcast(ctx, s.ChannelID, msg); err != nil {
		s.log.Warnf("broadcast %s: %v", msg.Kind, err)
	}
	s.saveRecord(ctx, true)
	s.log.Infof("match cancelled")
}

// finish announces the result, pays every player once and records the match.
func (s *Session) finish(winner Faction) {
	players := s.Players()
	text := "Nobody is left standing. The match is a draw."
	switch winner {
	case FactionVillage:
		text = "The village has rooted out every werewolf. Village wins!"
	case FactionWerewolf:
		text = "The werewolves outnumber the village. Werewolves win!"
	}
	s.broadcast(Message{Kind: MsgGameOver, Winner: winner, Players: players, Text: text})
	s.log.Infof("match over, winner %q", winner)

	s.payRewards(winner, players)
	s.saveRecord(s.ctx, false)
	_ = s.wait(PhaseGameOver, s.round, s.cfg.GameOverGrace, nil)
}

func (s *Session) payRewards(winner Faction, players []PlayerView) {
	var g errgroup.Group
	g.SetLimit(fanOut)
	for _, p := range players {
		currency, xp := rewardFor(s.cfg.Rewards, winner, p)
		g.Go(func() error {
			if err := s.deps.Rewards.Award(s.ctx, p.ID, currency, xp); err != nil {
				s.log.Warnf("award %d/%d to %s: %v", currency, xp, p.ID, err)
				return fmt.Errorf("%w: award %s: %w", ErrCollaborator, p.ID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Warnf("rewards incomplete: %v", err)
	}
}

// rewardFor computes one player's payout. Neutral players and everyone in a
// draw get the loss amounts.
func rewardFor(r Rewards, winner Faction, p PlayerView) (currency, experience int) {
	if winner != FactionNone && p.Faction == winner {
		currency, experience = r.WinCurrency, r.WinExperience
	} else {
		currency, experience = r.LossCurrency, r.LossExperience
	}
	if p.Alive {
		currency += r.SurvivorBonus
	}
	return currency, experience
}

func (s *Session) saveRecord(ctx context.Context, cancelled bool) {
	if s.deps.Recorder == nil {
		return
	}
	s.mu.RLock()
	rec := MatchRecord{
		SessionID: s.ID,
		ChannelID: s.ChannelID,
		StartedAt: s.StartedAt,
		EndedAt:   time.Now(),
		Rounds:    s.round,
		Winner:    s.winner,
		Cancelled: cancelled,
		Players:   s.viewsLocked(false),
		Events:    append([]MatchEvent(nil), s.events...),
	}
	s.mu.RUnlock()
	if err := s.deps.Recorder.RecordMatch(ctx, rec); err != nil {
		s.log.Warnf("record match: %v", err)
	}
}

// revealRoles tells every player their role and gives the pack a way to talk.
func (s *Session) revealRoles() {
	players := s.Players()
	var g errgroup.Group
	g.SetLimit(fanOut)
	var wolves []PlayerView
	for _, p := range players {
		if p.Faction == FactionWerewolf {
			wolves = append(wolves, p)
		}
		seat, _ := s.roster.Player(p.ID)
		msg := s.stamp(Message{Kind: MsgRoleReveal, Role: p.Role, Faction: p.Faction, Text: fmt.Sprintf("You are the %s. %s", p.Role, seat.Role.Description)})
		g.Go(func() error { return s.sendPrivate(p.ID, msg) })
	}
	_ = g.Wait()

	if len(wolves) < 2 {
		return
	}
	ids := make([]string, 0, len(wolves))
	for _, w := range wolves {
		ids = append(ids, w.ID)
	}
	roster := Message{Kind: MsgFactionRoster, Faction: FactionWerewolf, Players: wolves, Text: "Your pack: " + joinNames(wolves)}
	handle, err := s.deps.Notifier.OpenFactionChannel(s.ctx, s.ChannelID, FactionWerewolf, ids)
	if err == nil {
		if err = s.deps.Notifier.Broadcast(s.ctx, handle, s.stamp(roster)); err == nil {
			return
		}
	}
	s.log.Warnf("faction channel unavailable, falling back to private messages: %v", err)
	for _, id := range ids {
		g.Go(func() error { return s.sendPrivate(id, s.stamp(roster)) })
	}
	_ = g.Wait()
}

// promptNightActors sends each living player with a night action their options.
func (s *Session) promptNightActors(round int) {
	s.mu.RLock()
	living := s.viewsLocked(true)
	type prompt struct {
		id  string
		msg Message
	}
	var prompts []prompt
	for _, p := range s.roster.Living() {
		if !p.canActAtNight() {
			continue
		}
		var targets []PlayerView
		for _, t := range living {
			if t.ID == p.ID && !p.Role.CanTargetSelf {
				continue
			}
			if t.ID == p.LastTarget && p.Role.NoRepeatTarget {
				continue
			}
			if p.Role.Allows(ActionKill) && t.Faction == FactionWerewolf {
				continue
			}
			targets = append(targets, publicView(t))
		}
		text := p.Role.Prompt
		for _, res := range []Resource{ResourcePoison, ResourceAntidote} {
			if _, limited := p.Role.MaxUses[res]; limited {
				text += fmt.Sprintf(" (%s left: %d)", res, p.Remaining(res))
			}
		}
		prompts = append(prompts, prompt{id: p.ID, msg: Message{Kind: MsgNightPrompt, Role: p.Role.Name, Targets: targets, Text: text}})
	}
	s.mu.RUnlock()

	var g errgroup.Group
	g.SetLimit(fanOut)
	for _, p := range prompts {
		msg := s.stamp(p.msg)
		msg.Round = round
		g.Go(func() error { return s.sendPrivate(p.id, msg) })
	}
	_ = g.Wait()
}

func (s *Session) announceNight(res NightResult) {
	text := "The night passes quietly. Nobody died."
	if len(res.Deaths) > 0 {
		text = s.describeDeaths(res.Deaths)
	}
	s.broadcast(Message{Kind: MsgDeaths, Deaths: res.Deaths, Text: text})

	var g errgroup.Group
	g.SetLimit(fanOut)
	for _, rep := range res.Reports {
		text := fmt.Sprintf("Your %s on %s: %s.", rep.Kind, s.name(rep.TargetID), rep.Detail)
		if rep.Revealed != FactionNone {
			text = fmt.Sprintf("%s belongs to the %s faction.", s.name(rep.TargetID), rep.Revealed)
		}
		msg := s.stamp(Message{Kind: MsgActionResult, Report: &rep, Text: text})
		g.Go(func() error { return s.sendPrivate(rep.ActorID, msg) })
	}
	_ = g.Wait()
}

func (s *Session) announceLynch(res DayResult) {
	var text string
	switch res.Outcome {
	case LynchNoVotes:
		text = "No votes were cast. Nobody is lynched today."
	case LynchWarded:
		text = fmt.Sprintf("The village turned on %s, but a ward held. Nobody is lynched today.", s.name(res.Target))
	default:
		text = s.describeDeaths(res.Deaths)
	}
	s.broadcast(Message{Kind: MsgLynch, Deaths: res.Deaths, Lynch: &res, Text: text})
}

// lastShots asks dead revenge holders who never marked anyone for a target.
func (s *Session) lastShots(round int) {
	s.mu.RLock()
	holders := s.roster.awaitingRevenge()
	var options []PlayerView
	for _, v := range s.viewsLocked(true) {
		options = append(options, publicView(v))
	}
	s.mu.RUnlock()

	for _, h := range holders {
		ctx, cancel := context.WithTimeout(s.ctx, s.cfg.RevengeTimeout)
		choice, err := s.deps.Notifier.RequestConfirmation(ctx, h.ID, Prompt{Text: "You are dying. Pick someone to take with you.", Options: options}, s.cfg.RevengeTimeout)
		cancel()
		if err != nil {
			s.log.Warnf("revenge prompt for %s: %v", h.ID, err)
			choice = ""
		}

		s.mu.Lock()
		if s.phase.Terminal() {
			s.mu.Unlock()
			return
		}
		deaths := s.roster.applyRevenge(h.ID, choice, round)
		err = s.roster.CheckPartition()
		s.mu.Unlock()
		if err != nil {
			s.fail(err)
			return
		}
		if len(deaths) > 0 {
			s.broadcast(Message{Kind: MsgRevenge, Deaths: deaths, Text: s.describeDeaths(deaths)})
		}
	}
}

// stamp fills the session fields of msg.
func (s *Session) stamp(msg Message) Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg.SessionID = s.ID
	msg.Round = s.round
	msg.Phase = s.phase
	return msg
}

func (s *Session) record(msg Message) {
	s.events = append(s.events, MatchEvent{Round: msg.Round, Phase: msg.Phase, Kind: msg.Kind, Text: msg.Text, At: time.Now()})
}

func (s *Session) broadcast(msg Message) {
	msg = s.stamp(msg)
	s.record(msg)
	if err := s.deps.Notifier.Broadcast(s.ctx, s.ChannelID, msg); err != nil {
		s.log.Warnf("broadcast %s: %v", msg.Kind, err)
	}
}

// sendPrivate never fails the caller; delivery problems are logged.
func (s *Session) sendPrivate(playerID string, msg Message) error {
	if err := s.deps.Notifier.SendPrivate(s.ctx, playerID, msg); err != nil {
		if !errors.Is(err, context.Canceled) {
			s.log.Warnf("private %s to %s: %v", msg.Kind, playerID, err)
		}
	}
	return nil
}

func (s *Session) name(id string) string {
	if p, ok := s.roster.Player(id); ok {
		return p.Name
	}
	return id
}

func (s *Session) describeDeaths(deaths []DeathEvent) string {
	parts := make([]string, 0, len(deaths))
	for _, d := range deaths {
		parts = append(parts, fmt.Sprintf("%s the %s died (%s).", s.name(d.PlayerID), d.Role, causeText(d.Cause)))
	}
	return strings.Join(parts, " ")
}

func causeText(c DeathCause) string {
	switch c {
	case CauseWerewolfKill:
		return "killed by werewolves"
	case CausePoison:
		return "poisoned"
	case CauseLynched:
		return "lynched by the village"
	case CauseRevenge:
		return "taken down in revenge"
	case CauseSacrifice:
		return "sacrificed guarding a werewolf"
	}
	return string(c)
}

// publicViews hides roles of living players.
func (s *Session) publicViews() []PlayerView {
	views := s.Players()
	for i := range views {
		views[i] = publicView(views[i])
	}
	return views
}

func publicView(v PlayerView) PlayerView {
	if v.Alive {
		v.Role = ""
		v.Faction = FactionNone
	}
	return v
}

func joinNames(views []PlayerView) string {
	names := make([]string, 0, len(views))
	for _, v := range views {
		names = append(names, v.Name)
	}
	return strings.Join(names, ", ")
}
