package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/health-score/internal/llm"
	"github.com/sells-group/health-score/internal/model"
)

// Messaging flags.
const (
	FlagNoWhatsAppData   = "no_whatsapp_data"
	FlagSilence          = "silence"
	FlagCancellationRisk = "cancellation_risk"
)

const (
	silenceScore        = 30
	keywordPenalty      = 30
	keywordFloor        = 20
	tokensPerWeek       = 300
	tokensFinalCall     = 500
	weeklyMaxTokens     = 300
	classifyMaxTokens   = 600
	defaultMinMessages  = 5
	defaultMaxPerWeek   = 50
	defaultMaxChars     = 200
	defaultResponseLang = "pt-BR"
)

// MessagingSettings bounds the messaging agent's summarization pipeline.
type MessagingSettings struct {
	MinClientMessages  int
	MaxPerWeek         int
	MaxCharsPerMessage int
	WeeklyConcurrency  int
	ResponseLocale     string
}

func (s MessagingSettings) withDefaults() MessagingSettings {
	if s.MinClientMessages <= 0 {
		s.MinClientMessages = defaultMinMessages
	}
	if s.MaxPerWeek <= 0 {
		s.MaxPerWeek = defaultMaxPerWeek
	}
	if s.MaxCharsPerMessage <= 0 {
		s.MaxCharsPerMessage = defaultMaxChars
	}
	if s.WeeklyConcurrency <= 0 {
		s.WeeklyConcurrency = 1
	}
	if s.ResponseLocale == "" {
		s.ResponseLocale = defaultResponseLang
	}
	return s
}

// MessagingInput is everything the messaging agent needs for one client.
type MessagingInput struct {
	GroupID         *string
	Messages        []model.ChatMessage
	TeamIdentifiers []string
	// Completer is nil when the agency has no LLM credential.
	Completer llm.Completer
}

// MessagingAgent scores the Proximity pillar from group chat activity.
type MessagingAgent struct {
	settings MessagingSettings
	keywords *KeywordMatcher
}

// NewMessagingAgent creates a messaging agent. A nil matcher uses the
// default cancellation keywords.
func NewMessagingAgent(settings MessagingSettings, keywords *KeywordMatcher) *MessagingAgent {
	if keywords == nil {
		keywords = NewKeywordMatcher(DefaultCancellationKeywords)
	}
	return &MessagingAgent{settings: settings.withDefaults(), keywords: keywords}
}

// Score runs the messaging agent. Failures of the LLM pipeline are returned
// as an error result and never as a Go error.
func (a *MessagingAgent) Score(ctx context.Context, in MessagingInput) model.AgentResult {
	start := time.Now()
	res := a.score(ctx, in)
	res.AgentName = model.AgentMessaging
	res.DurationMs = time.Since(start).Milliseconds()
	return res
}

func (a *MessagingAgent) score(ctx context.Context, in MessagingInput) model.AgentResult {
	if in.GroupID == nil || *in.GroupID == "" {
		return model.AgentResult{
			Flags:   []string{FlagNoWhatsAppData},
			Details: map[string]any{"reason": "no messaging channel"},
			Status:  model.ExecSkipped,
		}
	}

	team := make(map[string]bool, len(in.TeamIdentifiers))
	for _, id := range in.TeamIdentifiers {
		if id = strings.TrimSpace(id); id != "" {
			team[id] = true
		}
	}
	teamKnown := len(team) > 0

	var clientTexts []string
	for _, m := range in.Messages {
		if m.IsFromAgencyAccount {
			teamKnown = true
		}
		if isClientAuthored(m, team) {
			clientTexts = append(clientTexts, m.Content)
		}
	}
	count := len(clientTexts)

	if count < a.settings.MinClientMessages {
		return model.AgentResult{
			Score: model.IntPtr(silenceScore),
			Flags: []string{FlagSilence},
			Details: map[string]any{
				"client_messages": count,
				"total_messages":  len(in.Messages),
			},
			Status: model.ExecSuccess,
		}
	}

	matched := a.keywords.Find(clientTexts...)

	if in.Completer == nil {
		base := 50 + count/2
		if base > 100 {
			base = 100
		}
		score := base
		flags := []string{}
		if len(matched) > 0 {
			score = base - keywordPenalty
			if score < keywordFloor {
				score = keywordFloor
			}
			flags = append(flags, FlagCancellationRisk)
		}
		return model.AgentResult{
			Score: model.IntPtr(score),
			Flags: flags,
			Details: map[string]any{
				"mode":             "heuristic",
				"client_messages":  count,
				"total_messages":   len(in.Messages),
				"keywords_matched": matched,
			},
			Status: model.ExecSuccess,
		}
	}

	out, err := a.runPipeline(ctx, in.Completer, in.Messages, team, teamKnown)
	if err != nil {
		zap.L().Warn("messaging: llm pipeline failed", zap.Error(err))
		return model.AgentResult{
			Flags: []string{},
			Details: map[string]any{
				"mode":  "llm",
				"error": err.Error(),
			},
			Status:       model.ExecError,
			ErrorMessage: err.Error(),
		}
	}

	flags := out.Flags
	if len(matched) > 0 && !containsString(flags, FlagCancellationRisk) {
		flags = append(flags, FlagCancellationRisk)
	}
	return model.AgentResult{
		Score: model.IntPtr(out.Score),
		Flags: flags,
		Details: map[string]any{
			"mode":             "llm",
			"sentiment":        out.Sentiment,
			"engagement_level": out.EngagementLevel,
			"summary":          out.Summary,
			"weeks":            out.Weeks,
			"client_messages":  count,
			"total_messages":   len(in.Messages),
			"keywords_matched": matched,
			"tokens_reported":  out.ReportedTokens,
		},
		Status:     model.ExecSuccess,
		TokensUsed: tokensPerWeek*out.Weeks + tokensFinalCall,
	}
}

func isClientAuthored(m model.ChatMessage, team map[string]bool) bool {
	return !m.IsFromAgencyAccount && !team[m.SenderIdentifier]
}

// weekBatch is the messages of one ISO week.
type weekBatch struct {
	Year, Week int
	Messages   []model.ChatMessage
}

func (w weekBatch) label() string {
	return fmt.Sprintf("%d-W%02d", w.Year, w.Week)
}

// bucketByISOWeek groups messages by ISO calendar week in chronological
// order, each week sorted oldest first.
func bucketByISOWeek(msgs []model.ChatMessage) []weekBatch {
	idx := map[[2]int]int{}
	var weeks []weekBatch
	for _, m := range msgs {
		y, w := m.Time().ISOWeek()
		key := [2]int{y, w}
		i, ok := idx[key]
		if !ok {
			i = len(weeks)
			idx[key] = i
			weeks = append(weeks, weekBatch{Year: y, Week: w})
		}
		weeks[i].Messages = append(weeks[i].Messages, m)
	}
	sort.Slice(weeks, func(i, j int) bool {
		if weeks[i].Year != weeks[j].Year {
			return weeks[i].Year < weeks[j].Year
		}
		return weeks[i].Week < weeks[j].Week
	})
	for i := range weeks {
		sort.SliceStable(weeks[i].Messages, func(a, b int) bool {
			return weeks[i].Messages[a].TimestampUnix < weeks[i].Messages[b].TimestampUnix
		})
	}
	return weeks
}

type classification struct {
	Score           int
	Sentiment       string
	EngagementLevel string
	Flags           []string
	Summary         string
	Weeks           int
	ReportedTokens  int
}

func (a *MessagingAgent) runPipeline(ctx context.Context, c llm.Completer, msgs []model.ChatMessage, team map[string]bool, teamKnown bool) (*classification, error) {
	weeks := bucketByISOWeek(msgs)
	if len(weeks) == 0 {
		return nil, eris.New("messaging: no messages to summarize")
	}

	summaries := make([]string, len(weeks))
	tokens := make([]int, len(weeks))
	system := weeklySummarySystem(a.settings.ResponseLocale, teamKnown)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.settings.WeeklyConcurrency)
	for i, w := range weeks {
		g.Go(func() error {
			resp, err := c.Complete(gctx, llm.Request{
				Tier:      llm.TierCheap,
				System:    system,
				User:      a.formatWeek(w, team, teamKnown),
				MaxTokens: weeklyMaxTokens,
			})
			if err != nil {
				return eris.Wrapf(err, "messaging: summarize week %s", w.label())
			}
			summaries[i] = strings.TrimSpace(resp.Text)
			tokens[i] = resp.Tokens()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var b strings.Builder
	for i, w := range weeks {
		marker := ""
		if i == len(weeks)-1 {
			marker = " (CURRENT WEEK, HIGHER WEIGHT)"
		}
		fmt.Fprintf(&b, "Week %s%s:\n%s\n\n", w.label(), marker, summaries[i])
	}

	resp, err := c.Complete(ctx, llm.Request{
		Tier:      llm.TierStrong,
		System:    messagingClassifySystem(a.settings.ResponseLocale),
		User:      strings.TrimSpace(b.String()),
		MaxTokens: classifyMaxTokens,
		JSON:      true,
	})
	if err != nil {
		return nil, eris.Wrap(err, "messaging: classify")
	}

	out, err := parseClassification(resp.Text)
	if err != nil {
		return nil, err
	}
	out.Weeks = len(weeks)
	out.ReportedTokens = resp.Tokens()
	for _, t := range tokens {
		out.ReportedTokens += t
	}
	return out, nil
}

// formatWeek renders one week for the summary prompt. Busy weeks keep their
// most recent MaxPerWeek messages, still oldest first.
func (a *MessagingAgent) formatWeek(w weekBatch, team map[string]bool, teamKnown bool) string {
	msgs := w.Messages
	if len(msgs) > a.settings.MaxPerWeek {
		msgs = msgs[len(msgs)-a.settings.MaxPerWeek:]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Week %s\n", w.label())
	for _, m := range msgs {
		role := ""
		if teamKnown {
			role = "[TEAM] "
			if isClientAuthored(m, team) {
				role = "[CLIENT] "
			}
		}
		name := m.SenderDisplayName
		if name == "" {
			name = m.SenderIdentifier
		}
		content := truncateRunes(strings.ReplaceAll(m.Content, "\n", " "), a.settings.MaxCharsPerMessage)
		fmt.Fprintf(&b, "%s %s%s: %s\n", m.Time().Format("2006-01-02 15:04"), role, name, content)
	}
	return b.String()
}

func parseClassification(text string) (*classification, error) {
	var raw struct {
		Score           *float64 `json:"score"`
		Sentiment       string   `json:"sentiment"`
		EngagementLevel string   `json:"engagementLevel"`
		Flags           []string `json:"flags"`
		Summary         string   `json:"summary"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		return nil, eris.Wrap(err, "messaging: parse classification")
	}
	if raw.Score == nil {
		return nil, eris.New("messaging: classification missing score")
	}
	if math.IsNaN(*raw.Score) || *raw.Score < 0 || *raw.Score > 100 {
		return nil, eris.Errorf("messaging: classification score %v out of range", *raw.Score)
	}

	flags := []string{}
	for _, f := range raw.Flags {
		f = strings.TrimSpace(f)
		if f != "" && !containsString(flags, f) {
			flags = append(flags, f)
		}
	}
	return &classification{
		Score:           int(math.Round(*raw.Score)),
		Sentiment:       raw.Sentiment,
		EngagementLevel: raw.EngagementLevel,
		Flags:           flags,
		Summary:         raw.Summary,
	}, nil
}
