package notifications

import (
	"testing"

	domain "github.com/campusdocs/api/internal/domain"
)

func TestRenderSubstitutesPlaceholders(t *testing.T) {
	tpl := domain.NotificationTemplate{
		Status:  domain.OrderStatusReadyForPickup,
		Subject: "Your request {{referenceCode}} is {{statusLabel}}",
		Body:    "Hi {{firstName}} {{lastName}}, your documents ({{documents}}) are {{statusLabel}}.",
		Enabled: true,
	}

	msg := Render(tpl, RenderContext{
		Requester: domain.Requester{
			ID:        "usr_01",
			FirstName: "Maria",
			LastName:  "Santos",
			Email:     "maria@example.edu",
		},
		ReferenceCode: "CD-2025-000042",
		Status:        domain.OrderStatusReadyForPickup,
		Selections: []domain.DocumentSelection{
			{Name: "Transcript of Records"},
			{Name: "Certificate of Enrollment"},
		},
	})

	if msg.Subject != "Your request CD-2025-000042 is Ready for Pickup" {
		t.Fatalf("subject = %q", msg.Subject)
	}
	want := "Hi Maria Santos, your documents (Transcript of Records, Certificate of Enrollment) are Ready for Pickup."
	if msg.Body != want {
		t.Fatalf("body = %q, want %q", msg.Body, want)
	}
	if msg.Email != "maria@example.edu" {
		t.Fatalf("email = %q", msg.Email)
	}
	if msg.OrderStatus != "READY_FOR_PICKUP" {
		t.Fatalf("order status = %q", msg.OrderStatus)
	}
}

func TestRenderLeavesUnknownPlaceholders(t *testing.T) {
	tpl := domain.NotificationTemplate{
		Subject: "{{referenceCode}} {{unknownField}}",
	}
	msg := Render(tpl, RenderContext{ReferenceCode: "CD-2025-000001"})
	if msg.Subject != "CD-2025-000001 {{unknownField}}" {
		t.Fatalf("subject = %q", msg.Subject)
	}
}

func TestRenderEmptySelections(t *testing.T) {
	tpl := domain.NotificationTemplate{Body: "Documents: {{documents}}"}
	msg := Render(tpl, RenderContext{})
	if msg.Body != "Documents: " {
		t.Fatalf("body = %q", msg.Body)
	}
}
