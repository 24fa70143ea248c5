package security

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"step_recorder/domain/entities"
)

func quietGuard(enabled bool) *StepGuard {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewStepGuard(enabled, log)
}

func TestShouldSkipDestructiveClicks(t *testing.T) {
	tests := []struct {
		name string
		step entities.Step
		skip bool
	}{
		{"delete button", entities.Step{ID: "1", Action: entities.ActionClick, PrimarySelector: "byRole('button', {name: 'Delete account'})"}, true},
		{"remove in description", entities.Step{ID: "2", Action: entities.ActionClick, PrimarySelector: "#x", Description: "Remove item"}, true},
		{"russian keyword", entities.Step{ID: "3", Action: entities.ActionDblClick, PrimarySelector: "byText('Удалить')"}, true},
		{"harmless click", entities.Step{ID: "4", Action: entities.ActionClick, PrimarySelector: "#save"}, false},
		{"typing is never skipped", entities.Step{ID: "5", Action: entities.ActionInput, PrimarySelector: "#delete-reason", Value: "x"}, false},
		{"assertions are never skipped", entities.Step{ID: "6", Action: entities.ActionAssert, PrimarySelector: "#delete"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skip, reason := quietGuard(true).ShouldSkip(tt.step)
			assert.Equal(t, tt.skip, skip)
			if tt.skip {
				assert.Contains(t, reason, "destructive action")
			} else {
				assert.Empty(t, reason)
			}
		})
	}
}

func TestShouldSkipPaymentConfirmationAfterCheckoutNavigation(t *testing.T) {
	g := quietGuard(true)
	buy := entities.Step{ID: "2", Action: entities.ActionClick, PrimarySelector: "byRole('button', {name: 'Buy now'})"}

	skip, _ := g.ShouldSkip(buy)
	assert.False(t, skip, "not on a payment page yet")

	skip, _ = g.ShouldSkip(entities.Step{ID: "1", Action: entities.ActionNavigate, Value: "https://shop.example.com/Checkout"})
	assert.False(t, skip)

	skip, reason := g.ShouldSkip(buy)
	assert.True(t, skip)
	assert.Equal(t, "payment confirmation: buy", reason)

	skip, _ = g.ShouldSkip(entities.Step{ID: "3", Action: entities.ActionNavigate, Value: "https://shop.example.com/"})
	assert.False(t, skip)
	skip, _ = g.ShouldSkip(buy)
	assert.False(t, skip)
}

func TestDisabledGuardAllowsEverything(t *testing.T) {
	g := quietGuard(false)
	skip, reason := g.ShouldSkip(entities.Step{ID: "1", Action: entities.ActionClick, PrimarySelector: "#delete"})
	assert.False(t, skip)
	assert.Empty(t, reason)

	kw, ok := g.IsDestructive(entities.Step{PrimarySelector: "#trash-can"})
	assert.True(t, ok)
	assert.Equal(t, "trash", kw)
}
