package testreset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingResettable struct{ resets int }

func (c *countingResettable) ResetForTesting() { c.resets++ }

type panickingResettable struct{ called bool }

func (p *panickingResettable) ResetForTesting() {
	p.called = true
	panic("boom")
}

func TestResetAllCallsEveryComponent(t *testing.T) {
	a, b := &countingResettable{}, &countingResettable{}
	ResetAll(a, b)
	assert.Equal(t, 1, a.resets)
	assert.Equal(t, 1, b.resets)
}

func TestResetAllSurvivesPanicInOneComponent(t *testing.T) {
	p := &panickingResettable{}
	after := &countingResettable{}
	ResetAll(p, after)
	assert.True(t, p.called)
	assert.Equal(t, 1, after.resets)
}
