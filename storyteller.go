package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"werewolfbot/internal/game"
)

const storytellerSystemPrompt = `You are the narrator of a werewolf game played in a chat channel. When players die, you tell a short atmospheric story about their fate. Keep it to 2-3 sentences. Never reveal the role of anyone still alive.`

// msgStory carries a storyteller narration. The engine never sends it.
const msgStory game.MessageKind = "story"

const (
	storyTimeout  = 30 * time.Second
	storyFlush    = 300 * time.Millisecond
	historyLength = 40
)

// Storyteller generates a short story after deaths.
// onChunk is called with each text chunk as it streams in.
type Storyteller interface {
	Tell(ctx context.Context, history []string, onChunk func(string)) (string, error)
}

type llmStoryteller struct {
	llm          llms.Model
	systemPrompt string
	callOpts     []llms.CallOption
}

func (s *llmStoryteller) Tell(ctx context.Context, history []string, onChunk func(string)) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, s.systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman,
			"Match so far:\n"+strings.Join(history, "\n")+
				"\n\nTell a short dramatic story (2-3 sentences) about the latest deaths."),
	}

	var fullText strings.Builder
	opts := append(append([]llms.CallOption(nil), s.callOpts...), llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
		text := string(chunk)
		fullText.WriteString(text)
		if onChunk != nil {
			onChunk(text)
		}
		return nil
	}))

	_, err := s.llm.GenerateContent(ctx, messages, opts...)
	return strings.TrimSpace(fullText.String()), err
}

func buildCallOpts(cfg AppConfig, log *zap.SugaredLogger) []llms.CallOption {
	var opts []llms.CallOption
	if cfg.StorytellerTemperature != "" {
		if f, err := strconv.ParseFloat(cfg.StorytellerTemperature, 64); err == nil {
			opts = append(opts, llms.WithTemperature(f))
			log.Infof("Storyteller: temperature=%.2f", f)
		} else {
			log.Warnf("Storyteller: invalid temperature %q: %v", cfg.StorytellerTemperature, err)
		}
	}
	return opts
}

// newStoryteller builds the configured provider. It returns nil, nil when no
// provider is configured.
func newStoryteller(cfg AppConfig, log *zap.SugaredLogger) (Storyteller, error) {
	model := cfg.StorytellerModel
	callOpts := buildCallOpts(cfg, log)
	wrap := func(llm llms.Model) Storyteller {
		return &llmStoryteller{llm: llm, systemPrompt: storytellerSystemPrompt, callOpts: callOpts}
	}

	switch cfg.StorytellerProvider {
	case "":
		log.Infof("Storyteller: disabled (set storyteller_provider to enable)")
		return nil, nil
	case "ollama":
		llm, err := ollama.New(ollama.WithModel(model), ollama.WithServerURL(cfg.StorytellerOllamaURL))
		if err != nil {
			return nil, fmt.Errorf("ollama (%s at %s): %w", model, cfg.StorytellerOllamaURL, err)
		}
		log.Infof("Storyteller: Ollama model=%s url=%s", model, cfg.StorytellerOllamaURL)
		return wrap(llm), nil
	case "openai":
		llm, err := openai.New(openai.WithModel(model))
		if err != nil {
			return nil, fmt.Errorf("openai (%s): %w", model, err)
		}
		log.Infof("Storyteller: OpenAI model=%s", model)
		return wrap(llm), nil
	case "claude":
		llm, err := anthropic.New(anthropic.WithModel(model))
		if err != nil {
			return nil, fmt.Errorf("claude (%s): %w", model, err)
		}
		log.Infof("Storyteller: Claude model=%s", model)
		return wrap(llm), nil
	case "gemini":
		llm, err := googleai.New(context.Background(), googleai.WithDefaultModel(model))
		if err != nil {
			return nil, fmt.Errorf("gemini (%s): %w", model, err)
		}
		log.Infof("Storyteller: Gemini model=%s", model)
		return wrap(llm), nil
	case "groq":
		llm, err := openai.New(
			openai.WithModel(model),
			openai.WithBaseURL("https://api.groq.com/openai/v1"),
			openai.WithToken(cfg.GroqAPIKey),
		)
		if err != nil {
			return nil, fmt.Errorf("groq (%s): %w", model, err)
		}
		log.Infof("Storyteller: Groq model=%s", model)
		return wrap(llm), nil
	case "openai-compatible":
		if cfg.StorytellerURL == "" {
			return nil, fmt.Errorf("storyteller_url is required for the openai-compatible provider")
		}
		opts := []openai.Option{openai.WithModel(model), openai.WithBaseURL(cfg.StorytellerURL)}
		if cfg.StorytellerAPIKey != "" {
			opts = append(opts, openai.WithToken(cfg.StorytellerAPIKey))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("openai-compatible (%s at %s): %w", model, cfg.StorytellerURL, err)
		}
		log.Infof("Storyteller: openai-compatible model=%s url=%s", model, cfg.StorytellerURL)
		return wrap(llm), nil
	}
	return nil, fmt.Errorf("unknown storyteller provider %q", cfg.StorytellerProvider)
}

// narratingNotifier keeps the public history of each channel and follows every
// announcement that contains deaths with a generated story.
type narratingNotifier struct {
	game.Notifier
	teller Storyteller
	hub    *Hub // optional, receives partial stories while they stream
	log    *zap.SugaredLogger

	mu      sync.Mutex
	history map[string][]string
	wg      sync.WaitGroup
}

func newNarratingNotifier(next game.Notifier, teller Storyteller, hub *Hub, log *zap.SugaredLogger) *narratingNotifier {
	return &narratingNotifier{Notifier: next, teller: teller, hub: hub, log: log, history: map[string][]string{}}
}

func (n *narratingNotifier) Broadcast(ctx context.Context, channelID string, msg game.Message) error {
	err := n.Notifier.Broadcast(ctx, channelID, msg)

	switch msg.Kind {
	case game.MsgFactionRoster:
		return err
	case game.MsgGameOver, game.MsgCancelled:
		n.mu.Lock()
		delete(n.history, channelID)
		n.mu.Unlock()
		return err
	}

	n.mu.Lock()
	h := append(n.history[channelID], msg.Text)
	if len(h) > historyLength {
		h = h[len(h)-historyLength:]
	}
	n.history[channelID] = h
	snapshot := append([]string(nil), h...)
	n.mu.Unlock()

	if len(msg.Deaths) > 0 {
		n.wg.Add(1)
		go n.tell(channelID, msg, snapshot)
	}
	return err
}

// tell streams a story and posts it to the channel once complete.
func (n *narratingNotifier) tell(channelID string, msg game.Message, history []string) {
	defer n.wg.Done()

	var mu sync.Mutex
	var buf strings.Builder

	done := make(chan struct{})
	flushed := make(chan struct{})
	go func() {
		defer close(flushed)
		if n.hub == nil {
			return
		}
		ticker := time.NewTicker(storyFlush)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				mu.Lock()
				text := strings.TrimSpace(buf.String())
				mu.Unlock()
				if text != "" {
					n.hub.Publish(SpectatorEvent{Kind: string(msgStory), Channel: channelID, Session: msg.SessionID, Round: msg.Round, Phase: string(msg.Phase), Text: text, Partial: true})
				}
			case <-done:
				return
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), storyTimeout)
	defer cancel()

	story, err := n.teller.Tell(ctx, history, func(chunk string) {
		mu.Lock()
		buf.WriteString(chunk)
		mu.Unlock()
	})
	close(done)
	<-flushed

	if err != nil {
		n.log.Warnf("Storyteller: %s round %d: %v", channelID, msg.Round, err)
		return
	}
	if story == "" {
		return
	}
	out := game.Message{Kind: msgStory, SessionID: msg.SessionID, Round: msg.Round, Phase: msg.Phase, Text: story}
	if err := n.Notifier.Broadcast(ctx, channelID, out); err != nil {
		n.log.Warnf("Storyteller: post story to %s: %v", channelID, err)
		return
	}
	n.log.Infof("Storyteller: told story for %s round %d", channelID, msg.Round)
}

// wait blocks until every pending story has been posted or dropped.
func (n *narratingNotifier) wait() { n.wg.Wait() }
