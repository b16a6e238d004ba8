package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(stages []Stage) []string {
	out := make([]string, len(stages))
	for i, s := range stages {
		out[i] = s.Name()
	}
	return out
}

func TestNewAcceptsValidOrder(t *testing.T) {
	a := stage("a", []string{"x"}, []string{"y"})
	b := stage("b", []string{"x", "y"}, []string{"z"})
	p, err := New([]string{"x"}, a, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names(p.Stages()))
	assert.Equal(t, map[string]string{"y": "a", "z": "b"}, p.Producers())
}

func TestNewRejectsConsumerBeforeProducer(t *testing.T) {
	fines := stage("bps_fines", []string{"x"}, []string{"fine"})
	valuation := stage("valuation", []string{"fine"}, []string{"value"})

	_, err := New([]string{"x"}, valuation, fines)
	var dep *DependencyError
	require.ErrorAs(t, err, &dep)
	assert.Equal(t, "valuation", dep.Stage)
	assert.Equal(t, "fine", dep.Column)
	assert.True(t, errors.Is(err, ErrMissingProducer))
}

func TestNewRejectsDuplicateProducers(t *testing.T) {
	_, err := New([]string{"x"},
		stage("a", []string{"x"}, []string{"y"}),
		stage("b", []string{"x"}, []string{"y"}))
	assert.ErrorIs(t, err, ErrDuplicateProducer)

	_, err = New([]string{"x"}, stage("shadow", nil, []string{"x"}))
	assert.ErrorIs(t, err, ErrDuplicateProducer)
}

func TestSortDerivesDependencyOrder(t *testing.T) {
	a := stage("a", []string{"x"}, []string{"y"})
	b := stage("b", []string{"y"}, []string{"z"})
	c := stage("c", []string{"x"}, []string{"w"})
	d := stage("d", []string{"z", "w"}, []string{"v"})

	got, err := Sort([]string{"x"}, []Stage{d, b, c, a})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b", "d"}, names(got))

	_, err = New([]string{"x"}, got...)
	require.NoError(t, err)
}

func TestSortKeepsValidOrder(t *testing.T) {
	stages := []Stage{
		stage("a", []string{"x"}, []string{"y"}),
		stage("b", []string{"x"}, []string{"z"}),
		stage("c", []string{"y", "z"}, []string{"w"}),
	}
	got, err := Sort([]string{"x"}, stages)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names(got))
}

func TestSortDetectsCyclesAndMissingProducers(t *testing.T) {
	_, err := Sort([]string{"x"}, []Stage{
		stage("a", []string{"z"}, []string{"y"}),
		stage("b", []string{"y"}, []string{"z"}),
	})
	assert.ErrorIs(t, err, ErrCycle)

	_, err = Sort([]string{"x"}, []Stage{stage("self", []string{"y"}, []string{"y"})})
	assert.ErrorIs(t, err, ErrCycle)

	_, err = Sort([]string{"x"}, []Stage{stage("a", []string{"nope"}, []string{"y"})})
	assert.ErrorIs(t, err, ErrMissingProducer)
}
