package stats

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/rs/zerolog/log"

	"github.com/i474232898/covid-stats-bot/internal/common"
	"github.com/i474232898/covid-stats-bot/internal/metrics"
)

const (
	// UnavailableMessage is sent when the source failed or returned unusable data.
	UnavailableMessage = "Извините, какой-то сбой, не могу получить данные!"
	// NotFoundMessage is sent when the query names no known place.
	NotFoundMessage = "Это что за деревня? Я такой не знаю\nПопробуйте указать столицу региона."
)

// QuickReplies are offered as keyboard buttons after every reply.
var QuickReplies = []string{"Красноярск", "Россия", "Беларусь"}

// Outcome classifies a handled query.
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeUnavailable Outcome = "unavailable"
	OutcomeNotFound    Outcome = "not_found"
)

// Reply is the result of a handled query.
type Reply struct {
	Text     string   `json:"text"`
	Keyboard []string `json:"keyboard"`
	Outcome  Outcome  `json:"outcome"`
	Place    *Place   `json:"place,omitempty"`
	Summary  *Summary `json:"summary,omitempty"`
}

// Service dispatches place queries to the source serving them and renders replies.
type Service struct {
	directory *Directory
	regional  Source
	fixed     map[string]Binding
	formatter *Formatter
	resolver  RegionResolver
}

// Option customizes a Service.
type Option func(*Service)

// WithResolver enables a fallback lookup for places missing from the directory.
func WithResolver(r RegionResolver) Option {
	return func(s *Service) {
		s.resolver = r
	}
}

// NewService creates a Service. fixed is keyed by place name; keys are normalized.
func NewService(directory *Directory, regional Source, fixed map[string]Binding, formatter *Formatter, opts ...Option) *Service {
	s := &Service{
		directory: directory,
		regional:  regional,
		fixed:     make(map[string]Binding, len(fixed)),
		formatter: formatter,
	}
	for name, b := range fixed {
		s.fixed[common.Normalize(name)] = b
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle answers a free-text place query. It never returns an error: failures are
// rendered as one of the two fallback messages.
func (s *Service) Handle(ctx context.Context, text string) Reply {
	query := common.Normalize(text)

	place, src, err := s.resolve(ctx, query)
	if err != nil {
		log.Info().Str("query", query).Msg("place not recognized")
		return s.reply(NotFoundMessage, OutcomeNotFound)
	}

	series, err := src.Fetch(ctx, place.Code)
	if err != nil {
		log.Warn().Err(err).Str("source", src.Name()).Str("place", place.Name).Msg("source fetch failed")
		return s.reply(UnavailableMessage, OutcomeUnavailable)
	}

	msg, summary, err := s.formatter.Format(series, place)
	if err != nil {
		log.Warn().Err(err).Str("source", src.Name()).Int("records", len(series)).Msg("cannot render series")
		return s.reply(UnavailableMessage, OutcomeUnavailable)
	}

	r := s.reply(msg, OutcomeOK)
	r.Place = &place
	r.Summary = &summary
	return r
}

// Greeting renders the welcome message for a new conversation.
func (s *Service) Greeting(name string) Reply {
	text := fmt.Sprintf("Привет, <b>%s!</b>\nПо какому городу/стране статистика интересует?", html.EscapeString(name))
	return Reply{Text: text, Keyboard: keyboard(), Outcome: OutcomeOK}
}

// Directory exposes the region directory the service resolves against.
func (s *Service) Directory() *Directory {
	return s.directory
}

func (s *Service) resolve(ctx context.Context, query string) (Place, Source, error) {
	if b, ok := s.fixed[query]; ok {
		return b.Place, b.Source, nil
	}
	if s.regional == nil {
		return Place{}, nil, ErrPlaceNotFound
	}
	if p, ok := s.directory.Lookup(query); ok {
		return p, s.regional, nil
	}
	if s.resolver == nil || query == "" {
		return Place{}, nil, ErrPlaceNotFound
	}

	region, err := s.resolver.ResolveRegion(ctx, query)
	if err != nil {
		if !errors.Is(err, ErrPlaceNotFound) {
			log.Warn().Err(err).Str("query", query).Msg("region resolver failed")
		}
		return Place{}, nil, ErrPlaceNotFound
	}
	if p, ok := s.directory.Lookup(region); ok {
		log.Debug().Str("query", query).Str("region", region).Msg("resolved place via geocoder")
		return p, s.regional, nil
	}
	return Place{}, nil, ErrPlaceNotFound
}

func (s *Service) reply(text string, outcome Outcome) Reply {
	metrics.ObserveDispatch(string(outcome))
	return Reply{Text: text, Keyboard: keyboard(), Outcome: outcome}
}

func keyboard() []string {
	out := make([]string, len(QuickReplies))
	copy(out, QuickReplies)
	return out
}
