package rules

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constSource(name, intent string, conf float64, calls *int) Source {
	return New(name, func(text string, _ domain.NLUContext) (*domain.Candidate, error) {
		if calls != nil {
			*calls++
		}
		return &domain.Candidate{Intent: intent, Confidence: conf}, nil
	})
}

func TestResolve_FirstMatchWins(t *testing.T) {
	var aCalls, bCalls int
	arb, err := NewArbitrator([]Source{
		constSource("A", "intent.a", 0.7, &aCalls),
		constSource("B", "intent.b", 1.0, &bCalls),
	})
	require.NoError(t, err)

	res, err := arb.Resolve(context.Background(), domain.NewUtterance("anything"))
	require.NoError(t, err)
	require.NotNil(t, res.Candidate)
	assert.Equal(t, "intent.a", res.Candidate.Intent, "priority order must beat higher confidence")
	assert.Equal(t, "A", res.Source)
	assert.Equal(t, 1, aCalls)
	assert.Equal(t, 0, bCalls, "sources after the winner must not run")
}

func TestResolve_SkipsNonMatching(t *testing.T) {
	none := New("none", func(string, domain.NLUContext) (*domain.Candidate, error) { return nil, nil })
	arb, err := NewArbitrator([]Source{none, constSource("B", "intent.b", 0.9, nil)})
	require.NoError(t, err)

	res, err := arb.Resolve(context.Background(), domain.NewUtterance("x"))
	require.NoError(t, err)
	require.NotNil(t, res.Candidate)
	assert.Equal(t, "intent.b", res.Candidate.Intent)
}

func TestResolve_NoMatchReturnsNilCandidate(t *testing.T) {
	none := New("none", func(string, domain.NLUContext) (*domain.Candidate, error) { return nil, nil })
	arb, err := NewArbitrator([]Source{none})
	require.NoError(t, err)

	res, err := arb.Resolve(context.Background(), domain.NewUtterance("x"))
	require.NoError(t, err)
	assert.Nil(t, res.Candidate)
	assert.Empty(t, res.Errors)
}

func TestResolve_IsolatesFailingSources(t *testing.T) {
	boom := errors.New("regex exploded")
	failing := New("failing", func(string, domain.NLUContext) (*domain.Candidate, error) { return nil, boom })
	panicking := New("panicking", func(string, domain.NLUContext) (*domain.Candidate, error) { panic("nil map") })
	empty := New("empty", func(string, domain.NLUContext) (*domain.Candidate, error) {
		return &domain.Candidate{Confidence: 1}, nil
	})

	arb, err := NewArbitrator([]Source{failing, panicking, empty, constSource("ok", "intent.ok", 0.8, nil)})
	require.NoError(t, err)

	res, err := arb.Resolve(context.Background(), domain.NewUtterance("x"))
	require.NoError(t, err)
	require.NotNil(t, res.Candidate)
	assert.Equal(t, "intent.ok", res.Candidate.Intent)
	require.Len(t, res.Errors, 3)

	var cerr *domain.ClassificationError
	require.ErrorAs(t, res.Errors[0], &cerr)
	assert.Equal(t, "failing", cerr.Source)
	assert.ErrorIs(t, res.Errors[0], boom)
	require.ErrorAs(t, res.Errors[1], &cerr)
	assert.Equal(t, "panicking", cerr.Source)
	assert.Contains(t, cerr.Error(), "panic")
	require.ErrorAs(t, res.Errors[2], &cerr)
	assert.ErrorIs(t, cerr, errEmptyIntent)
}

func TestResolve_RejectsNonFiniteConfidence(t *testing.T) {
	nan := constSource("nan", "intent.nan", math.NaN(), nil)
	inf := constSource("inf", "intent.inf", math.Inf(1), nil)
	arb, err := NewArbitrator([]Source{nan, inf, constSource("ok", "intent.ok", 0.7, nil)})
	require.NoError(t, err)

	res, err := arb.Resolve(context.Background(), domain.NewUtterance("x"))
	require.NoError(t, err)
	require.NotNil(t, res.Candidate)
	assert.Equal(t, "intent.ok", res.Candidate.Intent)
	require.Len(t, res.Errors, 2)
	for _, e := range res.Errors {
		assert.ErrorIs(t, e, errBadConfidence)
	}
}

func TestResolve_ClampsAndCopiesCandidate(t *testing.T) {
	entities := map[string]any{"website": "github"}
	src := New("src", func(string, domain.NLUContext) (*domain.Candidate, error) {
		return &domain.Candidate{Intent: "i", Confidence: 3, Entities: entities}, nil
	})
	arb, err := NewArbitrator([]Source{src})
	require.NoError(t, err)

	res, err := arb.Resolve(context.Background(), domain.NewUtterance("x"))
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Candidate.Confidence)

	res.Candidate.Entities["website"] = "changed"
	assert.Equal(t, "github", entities["website"])
}

func TestResolve_NormalizesText(t *testing.T) {
	var seen string
	src := New("spy", func(text string, _ domain.NLUContext) (*domain.Candidate, error) {
		seen = text
		return nil, nil
	})

	arb, err := NewArbitrator([]Source{src})
	require.NoError(t, err)
	_, err = arb.Resolve(context.Background(), domain.NewUtterance("  Turn   ON\tWiFi "))
	require.NoError(t, err)
	assert.Equal(t, "turn on wifi", seen)

	raw, err := NewArbitrator([]Source{src}, WithoutNormalization())
	require.NoError(t, err)
	_, err = raw.Resolve(context.Background(), domain.NewUtterance("  Turn ON "))
	require.NoError(t, err)
	assert.Equal(t, "  Turn ON ", seen)
}

func TestResolve_PassesNLUContext(t *testing.T) {
	src := New("cmd", func(_ string, nlu domain.NLUContext) (*domain.Candidate, error) {
		if !nlu.Signal("isCommand") {
			return nil, nil
		}
		site, _ := nlu.Entity("website")
		return &domain.Candidate{Intent: "open", Confidence: 1, Entities: map[string]any{"website": site}}, nil
	})
	arb, err := NewArbitrator([]Source{src})
	require.NoError(t, err)

	utt := domain.Utterance{
		Text: "go there",
		NLU: domain.NLUContext{
			Entities: map[string]any{"website": "github.com"},
			Signals:  map[string]bool{"isCommand": true},
		},
	}
	res, err := arb.Resolve(context.Background(), utt)
	require.NoError(t, err)
	require.NotNil(t, res.Candidate)
	assert.Equal(t, "github.com", res.Candidate.Entities["website"])
}

func TestResolve_StopsOnCancelledContext(t *testing.T) {
	var calls int
	arb, err := NewArbitrator([]Source{constSource("A", "a", 1, &calls)})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = arb.Resolve(ctx, domain.NewUtterance("x"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestNewArbitrator_RejectsBadSources(t *testing.T) {
	_, err := NewArbitrator([]Source{{Name: "", Match: func(string, domain.NLUContext) (*domain.Candidate, error) { return nil, nil }}})
	assert.Error(t, err)

	_, err = NewArbitrator([]Source{{Name: "nil"}})
	assert.Error(t, err)

	_, err = NewArbitrator([]Source{constSource("dup", "a", 1, nil), constSource("dup", "b", 1, nil)})
	assert.Error(t, err)
}

func TestExactAndRegexp(t *testing.T) {
	exact := Exact("ask", []string{"open website"}, "browser.ask_which_website", 1)
	c, err := exact.Match("open website.", domain.NLUContext{})
	require.NoError(t, err)
	require.NotNil(t, c)
	c, err = exact.Match("open website github", domain.NLUContext{})
	require.NoError(t, err)
	assert.Nil(t, c)

	re := Regexp("open", `^open (?:the )?(.+)$`, "browser.open_website", 0.9, func(g []string) map[string]any {
		return map[string]any{"website": g[1]}
	})
	c, err = re.Match("open the github", domain.NLUContext{})
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "github", c.Entities["website"])
}
