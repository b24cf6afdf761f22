package tool

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/voxgate/voxgate/agent/contract"
)

// BuiltinDeps carries the injectable seams of the builtin tool set so tests
// can pin clocks and generated identifiers.
type BuiltinDeps struct {
	Now   func() time.Time
	NewID func(prefix string, n int) string
}

func (d BuiltinDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d BuiltinDeps) newID(prefix string, n int) string {
	if d.NewID != nil {
		return d.NewID(prefix, n)
	}
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return prefix + string(b)
}

// RegisterBuiltin installs the demo business tool set into the registry.
// Handlers return canned data so the full pipeline runs without any
// downstream systems.
func RegisterBuiltin(r *Registry, deps BuiltinDeps) error {
	defs := []*Definition{
		checkAvailability(),
		bookAppointment(deps),
		cancelAppointment(),
		createSupportTicket(deps),
		lookupCustomer(),
		checkBusinessHours(),
		getCompanyInfo(),
		getProductInfo(),
		createLead(deps),
		transferToHuman(),
		addCallNotes(deps),
	}
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func checkAvailability() *Definition {
	return &Definition{
		Name:        "check_availability",
		Description: "Check open appointment slots for a given date.",
		Params: map[string]*schema.ParameterInfo{
			"date":    {Type: schema.String, Desc: "Requested date, YYYY-MM-DD", Required: true},
			"service": {Type: schema.String, Desc: "Service the caller wants"},
		},
		Handler: func(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
			date, _ := args["date"].(string)
			slots := []string{"09:00", "10:30", "13:00", "15:30"}
			return contractx.ToolResult{
				Success: true,
				Data: map[string]any{
					"date":            date,
					"available_slots": slots,
				},
			}, nil
		},
	}
}

func bookAppointment(deps BuiltinDeps) *Definition {
	return &Definition{
		Name:        "book_appointment",
		Description: "Book an appointment at a confirmed date and time.",
		Params: map[string]*schema.ParameterInfo{
			"date":    {Type: schema.String, Desc: "Appointment date, YYYY-MM-DD", Required: true},
			"time":    {Type: schema.String, Desc: "Appointment time, HH:MM", Required: true},
			"name":    {Type: schema.String, Desc: "Customer name", Required: true},
			"service": {Type: schema.String, Desc: "Service being booked"},
		},
		Handler: func(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
			date, _ := args["date"].(string)
			at, _ := args["time"].(string)
			name, _ := args["name"].(string)
			confirmation := deps.newID("APT-", 6)
			return contractx.ToolResult{
				Success: true,
				Data: map[string]any{
					"confirmation_number": confirmation,
					"date":                date,
					"time":                at,
					"name":                name,
				},
				Message: fmt.Sprintf(
					"I've booked your appointment for %s at %s. Your confirmation number is %s.",
					date, at, confirmation),
			}, nil
		},
	}
}

func cancelAppointment() *Definition {
	return &Definition{
		Name:        "cancel_appointment",
		Description: "Cancel an existing appointment by confirmation number.",
		Params: map[string]*schema.ParameterInfo{
			"confirmation_number": {Type: schema.String, Desc: "Confirmation number, APT-XXXXXX", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
			number, _ := args["confirmation_number"].(string)
			if !strings.HasPrefix(number, "APT-") {
				return contractx.ToolResult{
					Success: false,
					Error:   "no appointment found with that confirmation number",
				}, nil
			}
			return contractx.ToolResult{
				Success: true,
				Data:    map[string]any{"confirmation_number": number, "status": "cancelled"},
				Message: fmt.Sprintf("Your appointment %s has been cancelled.", number),
			}, nil
		},
	}
}

func createSupportTicket(deps BuiltinDeps) *Definition {
	return &Definition{
		Name:        "create_support_ticket",
		Description: "Open a support ticket for an unresolved issue.",
		Params: map[string]*schema.ParameterInfo{
			"issue":    {Type: schema.String, Desc: "Summary of the problem", Required: true},
			"priority": {Type: schema.String, Desc: "low, normal, or high"},
		},
		Handler: func(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
			issue, _ := args["issue"].(string)
			priority, _ := args["priority"].(string)
			if priority == "" {
				priority = "normal"
			}
			ticket := deps.newID("TKT-", 8)
			return contractx.ToolResult{
				Success: true,
				Data: map[string]any{
					"ticket_id": ticket,
					"issue":     issue,
					"priority":  priority,
					"status":    "open",
				},
				Message: fmt.Sprintf(
					"I've created support ticket %s for you. Our team will follow up within one business day.",
					ticket),
			}, nil
		},
	}
}

func lookupCustomer() *Definition {
	return &Definition{
		Name:        "lookup_customer",
		Description: "Look up a customer record by phone or email.",
		Params: map[string]*schema.ParameterInfo{
			"phone": {Type: schema.String, Desc: "Customer phone number"},
			"email": {Type: schema.String, Desc: "Customer email address"},
		},
		Handler: func(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
			phone, _ := args["phone"].(string)
			email, _ := args["email"].(string)
			if phone == "" && email == "" {
				return contractx.ToolResult{
					Success: false,
					Error:   "phone or email is required",
				}, nil
			}
			return contractx.ToolResult{
				Success: true,
				Data: map[string]any{
					"name":           "Jordan Avery",
					"phone":          phone,
					"email":          email,
					"customer_since": "2023-04-12",
					"last_visit":     "2026-07-30",
				},
			}, nil
		},
	}
}

func checkBusinessHours() *Definition {
	return &Definition{
		Name:        "check_business_hours",
		Description: "Return the business's operating hours.",
		Params:      map[string]*schema.ParameterInfo{},
		Handler: func(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
			return contractx.ToolResult{
				Success: true,
				Data: map[string]any{
					"weekdays": "9:00 AM - 6:00 PM",
					"saturday": "10:00 AM - 4:00 PM",
					"sunday":   "closed",
				},
			}, nil
		},
	}
}

func getCompanyInfo() *Definition {
	return &Definition{
		Name:        "get_company_info",
		Description: "Return general information about the company.",
		Params:      map[string]*schema.ParameterInfo{},
		Handler: func(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
			return contractx.ToolResult{
				Success: true,
				Data: map[string]any{
					"name":     "Voxgate Services",
					"address":  "400 Harbor Way, Suite 210",
					"phone":    "(555) 014-2200",
					"website":  "https://voxgate.example.com",
					"services": []string{"consultations", "repairs", "maintenance plans"},
				},
			}, nil
		},
	}
}

func getProductInfo() *Definition {
	return &Definition{
		Name:        "get_product_info",
		Description: "Return details and pricing for a product or plan.",
		Params: map[string]*schema.ParameterInfo{
			"product": {Type: schema.String, Desc: "Product or plan name"},
		},
		Handler: func(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
			product, _ := args["product"].(string)
			if product == "" {
				product = "standard plan"
			}
			return contractx.ToolResult{
				Success: true,
				Data: map[string]any{
					"product":       product,
					"monthly_price": 49.0,
					"annual_price":  490.0,
					"trial_days":    14,
				},
			}, nil
		},
	}
}

func createLead(deps BuiltinDeps) *Definition {
	return &Definition{
		Name:        "create_lead",
		Description: "Record a sales lead for follow-up.",
		Params: map[string]*schema.ParameterInfo{
			"name":     {Type: schema.String, Desc: "Prospect name", Required: true},
			"interest": {Type: schema.String, Desc: "What the prospect is interested in", Required: true},
			"phone":    {Type: schema.String, Desc: "Callback number"},
		},
		Handler: func(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
			name, _ := args["name"].(string)
			interest, _ := args["interest"].(string)
			return contractx.ToolResult{
				Success: true,
				Data: map[string]any{
					"lead_id":    deps.newID("LEAD-", 6),
					"name":       name,
					"interest":   interest,
					"created_at": deps.now().UTC().Format(time.RFC3339),
				},
				Message: "I've passed your details to our sales team. Someone will reach out shortly.",
			}, nil
		},
	}
}

func transferToHuman() *Definition {
	return &Definition{
		Name:        "transfer_to_human",
		Description: "Flag the conversation for a live agent.",
		Params: map[string]*schema.ParameterInfo{
			"reason": {Type: schema.String, Desc: "Why the caller needs a person"},
		},
		Handler: func(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
			reason, _ := args["reason"].(string)
			return contractx.ToolResult{
				Success: true,
				Data:    map[string]any{"queued": true, "reason": reason},
				Message: "Let me connect you with a member of our team. Please hold for just a moment.",
			}, nil
		},
	}
}

func addCallNotes(deps BuiltinDeps) *Definition {
	return &Definition{
		Name:        "add_call_notes",
		Description: "Attach free-form notes to the conversation record.",
		Params: map[string]*schema.ParameterInfo{
			"notes": {Type: schema.String, Desc: "Notes to record", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
			notes, _ := args["notes"].(string)
			return contractx.ToolResult{
				Success: true,
				Data: map[string]any{
					"notes":       notes,
					"recorded_at": deps.now().UTC().Format(time.RFC3339),
				},
			}, nil
		},
	}
}
