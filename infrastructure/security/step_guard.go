// Package security decides which recorded steps are too risky to replay
// unattended.
package security

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"step_recorder/domain/entities"
	"step_recorder/domain/interfaces"
)

var (
	deletionKeywords = []string{"delete", "remove", "trash", "удалить", "удаление", "корзина"}
	paymentKeywords  = []string{"payment", "pay", "checkout", "purchase", "оплата", "платеж", "покупка"}
	confirmKeywords  = []string{"submit", "confirm", "pay", "order", "buy", "оплатить", "подтвердить", "заказать", "купить"}
)

// StepGuard skips destructive clicks and purchase confirmations during replay
type StepGuard struct {
	logger  *logrus.Logger
	enabled bool

	mu sync.Mutex
	// lastURL is the most recent navigation target seen by ShouldSkip
	lastURL string
}

// NewStepGuard - creates a guard; a disabled guard lets every step run
func NewStepGuard(enabled bool, logger *logrus.Logger) *StepGuard {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &StepGuard{logger: logger, enabled: enabled}
}

// ShouldSkip reports whether the step must not run and why. Steps are
// expected in replay order so that payment pages can be recognised.
func (g *StepGuard) ShouldSkip(step entities.Step) (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if step.Action == entities.ActionNavigate {
		g.lastURL = strings.ToLower(step.URL())
		return false, ""
	}
	if !g.enabled || !isClickLike(step.Action) {
		return false, ""
	}

	if kw, ok := g.IsDestructive(step); ok {
		g.logger.WithFields(logrus.Fields{
			"step_id": step.ID,
			"keyword": kw,
		}).Warn("Skipping destructive step")
		return true, "destructive action: " + kw
	}
	if kw, ok := g.isPaymentConfirmation(step); ok {
		g.logger.WithFields(logrus.Fields{
			"step_id": step.ID,
			"keyword": kw,
			"url":     g.lastURL,
		}).Warn("Skipping payment confirmation")
		return true, "payment confirmation: " + kw
	}
	return false, ""
}

// IsDestructive reports the deletion keyword the step's target carries
func (g *StepGuard) IsDestructive(step entities.Step) (string, bool) {
	return matchKeyword(step, deletionKeywords)
}

func (g *StepGuard) isPaymentConfirmation(step entities.Step) (string, bool) {
	onPaymentPage := false
	for _, kw := range paymentKeywords {
		if strings.Contains(g.lastURL, kw) {
			onPaymentPage = true
			break
		}
	}
	if !onPaymentPage {
		return "", false
	}
	return matchKeyword(step, confirmKeywords)
}

func isClickLike(a entities.Action) bool {
	return a == entities.ActionClick || a == entities.ActionDblClick || a == entities.ActionKeydown
}

func matchKeyword(step entities.Step, keywords []string) (string, bool) {
	lowerSelector := strings.ToLower(step.PrimarySelector)
	lowerDesc := strings.ToLower(step.Description)
	for _, keyword := range keywords {
		if strings.Contains(lowerSelector, keyword) || strings.Contains(lowerDesc, keyword) {
			return keyword, true
		}
	}
	return "", false
}

var _ interfaces.StepGuard = (*StepGuard)(nil)
