package notifications

import (
	"strings"

	domain "github.com/campusdocs/api/internal/domain"
)

// RenderContext carries the substitution values for template placeholders.
type RenderContext struct {
	Requester     domain.Requester
	ReferenceCode string
	Status        domain.OrderStatus
	Selections    []domain.DocumentSelection
}

// Render substitutes the template placeholders and returns the dispatchable
// message. Unknown placeholders are left verbatim so a template typo is
// visible in the delivered mail rather than silently dropped.
func Render(tpl domain.NotificationTemplate, rc RenderContext) Message {
	replacer := strings.NewReplacer(
		"{{firstName}}", rc.Requester.FirstName,
		"{{lastName}}", rc.Requester.LastName,
		"{{referenceCode}}", rc.ReferenceCode,
		"{{statusLabel}}", rc.Status.Label(),
		"{{documents}}", documentList(rc.Selections),
	)

	return Message{
		UserRef:       rc.Requester.ID,
		Email:         rc.Requester.Email,
		Subject:       replacer.Replace(tpl.Subject),
		Body:          replacer.Replace(tpl.Body),
		ReferenceCode: rc.ReferenceCode,
		OrderStatus:   string(rc.Status),
	}
}

func documentList(selections []domain.DocumentSelection) string {
	if len(selections) == 0 {
		return ""
	}
	names := make([]string, 0, len(selections))
	for _, sel := range selections {
		if name := strings.TrimSpace(sel.Name); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}
