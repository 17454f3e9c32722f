// Package outreach drafts follow-up messages for customers.
package outreach

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/clinic-crm/internal/config"
	"github.com/unclebandit/clinic-crm/internal/logging"
	"github.com/unclebandit/clinic-crm/internal/model"
)

// Drafter writes one follow-up message for a customer.
type Drafter interface {
	Name() string
	Draft(ctx context.Context, c model.Customer) (string, error)
}

// Result is a drafted message and the drafter that produced it.
type Result struct {
	Message string `json:"message"`
	Source  string `json:"source"`
}

// Composer tries Primary and falls back to Fallback on any error. A nil
// Primary goes straight to Fallback.
type Composer struct {
	Primary  Drafter
	Fallback Drafter
	Log      logrus.FieldLogger
}

// New builds a Composer from config. Without an API key only the template
// drafter is used.
func New(cfg config.AIConfig, log logrus.FieldLogger) *Composer {
	c := &Composer{
		Fallback: &TemplateDrafter{},
		Log:      logging.OrStandard(log),
	}
	if cfg.APIKey != "" {
		c.Primary = NewGeminiDrafter(cfg.APIKey, cfg.Model, cfg.Language)
	}
	return c
}

func (c *Composer) Draft(ctx context.Context, cust model.Customer) (Result, error) {
	if c.Primary != nil {
		msg, err := c.Primary.Draft(ctx, cust)
		if err == nil {
			return Result{Message: msg, Source: c.Primary.Name()}, nil
		}
		logging.OrStandard(c.Log).WithFields(logrus.Fields{
			"drafter":     c.Primary.Name(),
			"customer_id": cust.ID,
			"error":       err,
		}).Warn("draft failed, using fallback")
	}

	msg, err := c.Fallback.Draft(ctx, cust)
	if err != nil {
		return Result{}, err
	}
	return Result{Message: msg, Source: c.Fallback.Name()}, nil
}
