package outreach

import (
	"context"
	"sort"
	"strings"

	"github.com/unclebandit/clinic-crm/internal/model"
)

const DefaultTemplate = "Hello {name}, this is the clinic checking in after your {last_treatment} on {service_date}. " +
	"How has your skin been feeling since? We would love to welcome you back, and we have a promotion " +
	"on follow-up sessions this month. Just reply here and we will book a time that suits you."

// TemplateDrafter fills {name}, {last_treatment} and {service_date} in
// Template. Empty fields render as <unknown>.
type TemplateDrafter struct {
	Template string
}

func (d *TemplateDrafter) Name() string { return "template" }

func (d *TemplateDrafter) Draft(ctx context.Context, c model.Customer) (string, error) {
	tmpl := d.Template
	if tmpl == "" {
		tmpl = DefaultTemplate
	}
	return Render(tmpl, map[string]string{
		"name":           c.Name,
		"last_treatment": c.LastTreatment,
		"service_date":   c.ServiceDate,
	}), nil
}

// Render replaces each {key} in template with its value in a single pass,
// so placeholders inside values are left as they are.
func Render(template string, data map[string]string) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		v := data[k]
		if strings.TrimSpace(v) == "" {
			v = "<unknown>"
		}
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
