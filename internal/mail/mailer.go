package mail

import "context"

// Template identifiers, mirrored in the transactional-mail provider.
const (
	TemplateOrderCreated   = "canteen-order-created"
	TemplateOrderModified  = "canteen-order-modified"
	TemplateOrderCancelled = "canteen-order-cancelled"
	TemplateOrderReminder  = "canteen-order-reminder"
)

// Message is one transactional email. Vars are substituted into the
// provider-side template.
type Message struct {
	To         string
	ToName     string
	Subject    string
	TemplateID string
	Vars       map[string]any
}

// Mailer delivers notification emails. Delivery is best effort: callers log
// a returned error and move on, the triggering operation never fails because
// of it.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
