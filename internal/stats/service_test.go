package stats

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	mock.Mock
	name string
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) Fetch(ctx context.Context, code string) (Series, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Series), args.Error(1)
}

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) ResolveRegion(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

var twoDays = Series{
	{Date: day(2021, 1, 2), Sick: 100, Healed: 80, Died: 5},
	{Date: day(2021, 1, 1), Sick: 90, Healed: 70, Died: 4},
}

type fixture struct {
	service  *Service
	regional *mockSource
	national *mockSource
	neighbor *mockSource
}

func newFixture(t *testing.T, opts ...Option) fixture {
	t.Helper()

	dir, err := ParseDirectory([]byte(sampleDirectory))
	require.NoError(t, err)

	f := fixture{
		regional: &mockSource{name: "regional"},
		national: &mockSource{name: "embedded"},
		neighbor: &mockSource{name: "prose"},
	}
	fixed := map[string]Binding{
		"Россия":   {Place: Place{Name: "России", Code: "RU"}, Source: f.national},
		"Беларусь": {Place: Place{Name: "Беларуси", Code: "BY"}, Source: f.neighbor},
	}
	formatter := NewFormatter(fixedNow(time.Date(2021, 1, 2, 12, 0, 0, 0, time.UTC)), time.UTC)
	f.service = NewService(dir, f.regional, fixed, formatter, opts...)
	return f
}

func TestHandle_FixedPlace(t *testing.T) {
	f := newFixture(t)
	f.national.On("Fetch", mock.Anything, "RU").Return(twoDays, nil).Once()

	reply := f.service.Handle(context.Background(), "  Россия ")

	assert.Equal(t, OutcomeOK, reply.Outcome)
	assert.Contains(t, reply.Text, "Данные на сегодня (02.01.2021) по России")
	assert.Contains(t, reply.Text, "Заболевших: 100 (+10)")
	assert.Contains(t, reply.Text, "Выздоровевших: 80 (+10)")
	assert.Contains(t, reply.Text, "Погибших: 5 (+1)")
	assert.Equal(t, QuickReplies, reply.Keyboard)
	require.NotNil(t, reply.Summary)
	assert.Equal(t, int64(10), reply.Summary.Sick.Delta)
	f.national.AssertExpectations(t)
	f.regional.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestHandle_SecondFixedPlace(t *testing.T) {
	f := newFixture(t)
	f.neighbor.On("Fetch", mock.Anything, "BY").Return(twoDays, nil).Once()

	reply := f.service.Handle(context.Background(), "БЕЛАРУСЬ")

	assert.Equal(t, OutcomeOK, reply.Outcome)
	assert.Contains(t, reply.Text, "по Беларуси")
	f.neighbor.AssertExpectations(t)
}

func TestHandle_DirectoryPlace(t *testing.T) {
	f := newFixture(t)
	f.regional.On("Fetch", mock.Anything, "RU-KYA").Return(twoDays, nil).Once()

	reply := f.service.Handle(context.Background(), "Красноярск")

	assert.Equal(t, OutcomeOK, reply.Outcome)
	assert.Contains(t, reply.Text, "по региону Красноярский край")
	require.NotNil(t, reply.Place)
	assert.Equal(t, "RU-KYA", reply.Place.Code)
	f.regional.AssertExpectations(t)
}

func TestHandle_UnknownPlace(t *testing.T) {
	f := newFixture(t)

	reply := f.service.Handle(context.Background(), "неизвестный город")

	assert.Equal(t, NotFoundMessage, reply.Text)
	assert.Equal(t, OutcomeNotFound, reply.Outcome)
	assert.Len(t, reply.Keyboard, 3)
	f.regional.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestHandle_SourceFailures(t *testing.T) {
	cases := []struct {
		name   string
		series Series
		err    error
	}{
		{name: "transient", err: fmt.Errorf("%w: status 503", ErrTransientFetch)},
		{name: "malformed", err: fmt.Errorf("%w: no marker", ErrMalformedSource)},
		{name: "single record", series: Series{twoDays[0]}},
		{name: "empty", series: Series{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			if tc.err != nil {
				f.national.On("Fetch", mock.Anything, "RU").Return(nil, tc.err)
			} else {
				f.national.On("Fetch", mock.Anything, "RU").Return(tc.series, nil)
			}

			reply := f.service.Handle(context.Background(), "россия")

			assert.Equal(t, UnavailableMessage, reply.Text)
			assert.Equal(t, OutcomeUnavailable, reply.Outcome)
			assert.Nil(t, reply.Summary)
		})
	}
}

func TestHandle_MessagesAreDistinct(t *testing.T) {
	assert.NotEqual(t, UnavailableMessage, NotFoundMessage)
}

func TestHandle_ResolverFallback(t *testing.T) {
	resolver := &mockResolver{}
	f := newFixture(t, WithResolver(resolver))
	resolver.On("ResolveRegion", mock.Anything, "ачинск").Return("Красноярский край", nil).Once()
	f.regional.On("Fetch", mock.Anything, "RU-KYA").Return(twoDays, nil).Once()

	reply := f.service.Handle(context.Background(), "Ачинск")

	assert.Equal(t, OutcomeOK, reply.Outcome)
	assert.Contains(t, reply.Text, "по региону Красноярский край")
	resolver.AssertExpectations(t)
}

func TestHandle_ResolverMisses(t *testing.T) {
	cases := map[string][2]any{
		"not found":      {"", ErrPlaceNotFound},
		"resolver error": {"", errors.New("quota exceeded")},
		"unknown region": {"Атлантида", nil},
	}

	for name, ret := range cases {
		t.Run(name, func(t *testing.T) {
			resolver := &mockResolver{}
			f := newFixture(t, WithResolver(resolver))
			resolver.On("ResolveRegion", mock.Anything, "где-то").Return(ret[0], ret[1])

			reply := f.service.Handle(context.Background(), "где-то")

			assert.Equal(t, NotFoundMessage, reply.Text)
			f.regional.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
		})
	}
}

func TestGreeting(t *testing.T) {
	f := newFixture(t)

	reply := f.service.Greeting("<Аня>")

	assert.Equal(t, "Привет, <b>&lt;Аня&gt;!</b>\nПо какому городу/стране статистика интересует?", reply.Text)
	assert.Equal(t, QuickReplies, reply.Keyboard)
}
