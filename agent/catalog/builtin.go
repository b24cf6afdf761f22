package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/voxgate/voxgate/agent/contract"
	sessionx "github.com/voxgate/voxgate/agent/session"
)

var (
	//go:embed template/front_desk.txt
	frontDeskRaw string

	//go:embed template/scheduler.txt
	schedulerRaw string

	//go:embed template/support.txt
	supportRaw string

	//go:embed template/sales.txt
	salesRaw string

	//go:embed template/human_handoff.txt
	humanHandoffRaw string
)

// Builtin persona ids.
const (
	PersonaFrontDesk    = "front_desk"
	PersonaScheduler    = "scheduler"
	PersonaSupport      = "support"
	PersonaSales        = "sales"
	PersonaHumanHandoff = "human_handoff"
)

// escalateOnSentiment transfers to the human handoff persona when the caller
// sounds frustrated, regardless of intent.
func escalateOnSentiment(s *sessionx.Session) string {
	switch s.Sentiment {
	case "frustrated", "angry":
		return PersonaHumanHandoff
	}
	return ""
}

// NewBuiltinCatalog registers the default persona set and validates that
// every transfer rule resolves.
func NewBuiltinCatalog() (*Catalog, error) {
	c := NewCatalog()

	personas := []*Persona{
		{
			ID:           PersonaFrontDesk,
			DisplayName:  "Front Desk",
			Type:         contractx.PersonaTypePrimary,
			Instructions: strings.TrimSpace(frontDeskRaw),
			AllowedTools: []string{"check_business_hours", "get_company_info"},
			TransferRules: map[string]string{
				"booking":     PersonaScheduler,
				"appointment": PersonaScheduler,
				"support":     PersonaSupport,
				"technical":   PersonaSupport,
				"sales":       PersonaSales,
				"pricing":     PersonaSales,
				"human":       PersonaHumanHandoff,
			},
			Greeting: "Hello! Thank you for calling. How can I help you today?",
			Farewell: "Thank you for calling. Have a great day!",
			GreetingFunc: func(info contractx.BusinessInfo) string {
				if strings.TrimSpace(info.Name) == "" {
					return ""
				}
				return fmt.Sprintf("Hello! Thank you for calling %s. How can I help you today?", info.Name)
			},
			TransferCheck: escalateOnSentiment,
		},
		{
			ID:           PersonaScheduler,
			DisplayName:  "Scheduler",
			Type:         contractx.PersonaTypeSpecialist,
			Instructions: strings.TrimSpace(schedulerRaw),
			AllowedTools: []string{"check_availability", "book_appointment", "cancel_appointment"},
			Greeting:     "I can help you schedule an appointment. What date and time works best for you?",
			Farewell:     "Feel free to call back when you're ready to schedule. Goodbye!",
		},
		{
			ID:           PersonaSupport,
			DisplayName:  "Support",
			Type:         contractx.PersonaTypeSpecialist,
			Instructions: strings.TrimSpace(supportRaw),
			AllowedTools: []string{"create_support_ticket", "lookup_customer"},
			TransferRules: map[string]string{
				"human":    PersonaHumanHandoff,
				"escalate": PersonaHumanHandoff,
			},
			Greeting:      "I'm here to help with any technical issues. What problem are you experiencing?",
			TransferCheck: escalateOnSentiment,
		},
		{
			ID:           PersonaSales,
			DisplayName:  "Sales",
			Type:         contractx.PersonaTypeSpecialist,
			Instructions: strings.TrimSpace(salesRaw),
			AllowedTools: []string{"get_product_info", "create_lead"},
			Greeting:     "I'd be happy to help with pricing and product information. What are you looking for?",
		},
		{
			ID:           PersonaHumanHandoff,
			DisplayName:  "Human Handoff",
			Type:         contractx.PersonaTypeHandoff,
			Instructions: strings.TrimSpace(humanHandoffRaw),
			AllowedTools: []string{"transfer_to_human", "add_call_notes"},
			Greeting: "I understand you'd like to speak with a person. Let me connect you with one of our team members. " +
				"Before I do, could you briefly describe what you need help with?",
			// Handoff personas never transfer to other AI personas.
		},
	}

	for _, p := range personas {
		if err := c.Register(p); err != nil {
			return nil, err
		}
	}
	if err := c.ValidateTransferRules(); err != nil {
		return nil, err
	}
	return c, nil
}
