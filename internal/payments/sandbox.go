package payments

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// SandboxGateway is an in-memory Gateway for local development without
// processor keys. New charges are pending and redirect straight back to
// ReturnURI; the next retrieval reports them settled with the configured
// outcome.
type SandboxGateway struct {
	mu      sync.Mutex
	charges map[string]*Charge
	events  map[string]*Event
	refunds map[string]int64
	outcome string
}

// NewSandboxGateway creates a sandbox whose charges settle as successful
func NewSandboxGateway() *SandboxGateway {
	return &SandboxGateway{
		charges: make(map[string]*Charge),
		events:  make(map[string]*Event),
		refunds: make(map[string]int64),
		outcome: ChargeSuccessful,
	}
}

// SetOutcome changes the status future retrievals settle to
func (g *SandboxGateway) SetOutcome(status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.outcome = status
}

func (g *SandboxGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	if req.CardToken == "" && req.SourceType == "" {
		return nil, ErrNoPaymentMethod
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrProvider)
	}

	ch := &Charge{
		ID:           "chrg_test_" + uuid.NewString()[:8],
		Status:       ChargePending,
		Amount:       req.Amount,
		Currency:     req.Currency,
		AuthorizeURI: req.ReturnURI,
		Metadata:     req.Metadata,
	}

	g.mu.Lock()
	g.charges[ch.ID] = ch
	g.mu.Unlock()

	out := *ch
	return &out, nil
}

func (g *SandboxGateway) RetrieveCharge(ctx context.Context, chargeID string) (*Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ch, ok := g.charges[chargeID]
	if !ok {
		return nil, fmt.Errorf("%w: charge %s was not found", ErrProvider, chargeID)
	}
	if ch.Status == ChargePending {
		ch.Status = g.outcome
		if g.outcome == ChargeFailed {
			ch.FailureCode = "payment_rejected"
			ch.FailureMessage = "the payment was rejected by the sandbox"
		}
		ev := &Event{ID: "evnt_test_" + uuid.NewString()[:8], Key: EventChargeComplete}
		settled := *ch
		ev.Charge = &settled
		g.events[ev.ID] = ev
	}
	out := *ch
	return &out, nil
}

func (g *SandboxGateway) RetrieveEvent(ctx context.Context, eventID string) (*Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ev, ok := g.events[eventID]
	if !ok {
		return nil, fmt.Errorf("%w: event %s was not found", ErrProvider, eventID)
	}
	return ev, nil
}

// RefundCharge records a refund against a successful charge
func (g *SandboxGateway) RefundCharge(ctx context.Context, chargeID string, amount int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	ch, ok := g.charges[chargeID]
	if !ok {
		return fmt.Errorf("%w: charge %s was not found", ErrProvider, chargeID)
	}
	if ch.Status != ChargeSuccessful {
		return fmt.Errorf("%w: charge %s is not refundable", ErrProvider, chargeID)
	}
	if g.refunds[chargeID]+amount > ch.Amount {
		return fmt.Errorf("%w: refund exceeds the charged amount", ErrProvider)
	}
	g.refunds[chargeID] += amount
	return nil
}

// Refunded reports the total refunded against a charge
func (g *SandboxGateway) Refunded(chargeID string) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.refunds[chargeID]
}
