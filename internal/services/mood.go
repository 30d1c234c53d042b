package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/skinut3232/MovieBrain/internal/config"
	"github.com/skinut3232/MovieBrain/pkg/models"
)

// ErrMoodUnavailable is returned when the mood pipeline cannot produce a
// query vector. Callers surface it as 503 rather than degrading silently.
var ErrMoodUnavailable = errors.New("mood search is temporarily unavailable")

const suggestionSystemPrompt = `You are a movie recommendation assistant. You reply with strict JSON and nothing else.`

const descriptionSystemPrompt = `You are a movie recommendation assistant.`

// MoodResult carries both halves of a resolved mood: exact catalog matches
// from the title suggestions, and the blended query vector.
type MoodResult struct {
	Matches []models.CatalogTitle
	Vector  models.Vector
}

// MoodService turns a free-text mood into catalog matches and a query vector.
// Phase one asks the model for concrete title suggestions and reconciles them
// against the catalog; phase two asks for an abstract description, embeds it,
// and blends the embedding with the taste vector. Phase one is best effort;
// phase two failing means the mood cannot be served.
type MoodService struct {
	chat    TextCompleter
	embed   TextEmbedder
	catalog *CatalogService
	config  *config.Config
	logger  *logrus.Logger
	metrics *Metrics
}

func NewMoodService(chat TextCompleter, embed TextEmbedder, catalog *CatalogService, cfg *config.Config, logger *logrus.Logger, metrics *Metrics) *MoodService {
	return &MoodService{
		chat:    chat,
		embed:   embed,
		catalog: catalog,
		config:  cfg,
		logger:  logger,
		metrics: metrics,
	}
}

type titleSuggestion struct {
	Title string
	Year  *int
}

// stripCodeFence removes a markdown fence wrapper if the model added one.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:] // drop the language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// parseSuggestions extracts title suggestions from a model reply. It accepts
// a bare JSON array, an object wrapping one, and elements that are either
// strings or {"title", "year"} objects. Any shape it cannot make sense of
// yields nil.
func parseSuggestions(raw string) []titleSuggestion {
	raw = stripCodeFence(raw)

	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &arr); err != nil {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			return nil
		}
		for _, v := range obj {
			if json.Unmarshal(v, &arr) == nil {
				break
			}
		}
		if arr == nil {
			return nil
		}
	}

	var out []titleSuggestion
	for _, el := range arr {
		var title string
		if json.Unmarshal(el, &title) == nil {
			if title = strings.TrimSpace(title); title != "" {
				out = append(out, titleSuggestion{Title: title})
			}
			continue
		}
		var obj struct {
			Title string `json:"title"`
			Year  *int   `json:"year"`
		}
		if json.Unmarshal(el, &obj) != nil {
			continue
		}
		if obj.Title = strings.TrimSpace(obj.Title); obj.Title != "" {
			out = append(out, titleSuggestion{Title: obj.Title, Year: obj.Year})
		}
	}
	return out
}

// suggestTitles runs phase one. Every failure path returns nil; the caller
// proceeds without exact matches.
func (s *MoodService) suggestTitles(ctx context.Context, mood string, contextTitles []string) []titleSuggestion {
	prompt := fmt.Sprintf(
		`Suggest %d real movies that fit this mood: %q. Order them from most iconic to more obscure.
Respond with a JSON array of objects, each with "title" (string) and "year" (integer).`,
		s.config.Recommend.MoodSuggestionCount, mood)
	if len(contextTitles) > 0 {
		prompt += fmt.Sprintf("\nThe viewer recently enjoyed: %s.", strings.Join(contextTitles, ", "))
	}

	reply, err := s.chat.Complete(ctx, suggestionSystemPrompt, prompt)
	if err != nil {
		s.logger.WithError(err).Warn("Mood title suggestion call failed")
		return nil
	}

	suggestions := parseSuggestions(reply)
	if suggestions == nil {
		s.logger.WithField("reply_prefix", truncate(reply, 120)).Warn("Could not parse mood title suggestions")
	}
	return suggestions
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// resolveMatches reconciles suggestions against the catalog, preserving the
// model's order, skipping excluded titles and duplicates.
func (s *MoodService) resolveMatches(ctx context.Context, suggestions []titleSuggestion, exclude map[int64]bool) []models.CatalogTitle {
	var matches []models.CatalogTitle
	seen := map[int64]bool{}
	for _, sug := range suggestions {
		t, err := s.catalog.FindByTitle(ctx, sug.Title, sug.Year)
		if err != nil {
			s.logger.WithError(err).WithField("title", sug.Title).Warn("Suggestion lookup failed")
			continue
		}
		if t == nil || seen[t.ID] || exclude[t.ID] {
			continue
		}
		seen[t.ID] = true
		matches = append(matches, *t)
	}
	return matches
}

// moodVector runs phase two: an abstract description of the mood, embedded
// into the catalog space.
func (s *MoodService) moodVector(ctx context.Context, mood string) (models.Vector, error) {
	prompt := fmt.Sprintf(
		`Write 2-3 sentences describing the kind of movie that fits this mood: %q.
Describe tone, themes, and style. Do NOT name specific real movies.`, mood)

	description, err := s.chat.Complete(ctx, descriptionSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("mood description call failed: %w", err)
	}

	vec, err := s.embed.Embed(ctx, strings.TrimSpace(description))
	if err != nil {
		return nil, fmt.Errorf("mood embedding call failed: %w", err)
	}
	return vec, nil
}

// blend mixes the mood vector with the taste vector and renormalizes. A nil
// taste vector leaves the mood vector as-is.
func (s *MoodService) blend(mood, taste models.Vector) models.Vector {
	if len(taste) != len(mood) {
		return mood
	}

	w := s.config.Recommend.MoodBlendWeight
	out := make([]float64, len(mood))
	for i := range mood {
		out[i] = w*mood[i] + (1-w)*taste[i]
	}
	if norm := floats.Norm(out, 2); norm > 0 {
		floats.Scale(1/norm, out)
	}
	return out
}

// Resolve runs the full pipeline. contextTitles are the profile's recent
// favorites, used to steer the suggestions; exclude holds title ids already
// watched or flagged; taste may be nil for cold-start profiles.
func (s *MoodService) Resolve(ctx context.Context, mood string, taste models.Vector, contextTitles []string, exclude map[int64]bool) (*MoodResult, error) {
	suggestions := s.suggestTitles(ctx, mood, contextTitles)
	matches := s.resolveMatches(ctx, suggestions, exclude)
	if s.metrics != nil {
		s.metrics.MoodSuggestionsParsed.Observe(float64(len(matches)))
	}

	vec, err := s.moodVector(ctx, mood)
	if err != nil {
		if s.metrics != nil {
			s.metrics.MoodFailures.Inc()
		}
		s.logger.WithError(err).Error("Mood vector generation failed")
		return nil, ErrMoodUnavailable
	}

	return &MoodResult{
		Matches: matches,
		Vector:  s.blend(vec, taste),
	}, nil
}
