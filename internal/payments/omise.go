package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/eatmeetclub/api/internal/payments")

// OmiseGateway implements Gateway on the Omise API
type OmiseGateway struct {
	client *omise.Client
}

// NewOmiseGateway creates a client with the account's key pair
func NewOmiseGateway(publicKey, secretKey string) (*OmiseGateway, error) {
	client, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("omise client: %w", err)
	}
	return &OmiseGateway{client: client}, nil
}

// CreateCharge charges a card token directly, or creates an offsite source
// of SourceType first and charges that. Either way the customer may need to
// visit AuthorizeURI before the charge settles.
func (g *OmiseGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	ctx, span := startSpan(ctx, "omise.create_charge")
	defer span.End()

	op := &operations.CreateCharge{
		Amount:      req.Amount,
		Currency:    req.Currency,
		ReturnURI:   req.ReturnURI,
		Description: req.Description,
		Metadata:    toAnyMap(req.Metadata),
	}

	switch {
	case req.CardToken != "":
		op.Card = req.CardToken
	case req.SourceType != "":
		src := &omise.Source{}
		if err := g.do(ctx, span, func() error {
			return g.client.Do(src, &operations.CreateSource{
				Type:     req.SourceType,
				Amount:   req.Amount,
				Currency: req.Currency,
			})
		}); err != nil {
			return nil, err
		}
		op.Source = src.ID
		span.SetAttributes(attribute.String("payment.source_type", req.SourceType))
	default:
		return nil, ErrNoPaymentMethod
	}

	ch := &omise.Charge{}
	if err := g.do(ctx, span, func() error { return g.client.Do(ch, op) }); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("payment.charge_id", ch.ID))
	return fromOmiseCharge(ch), nil
}

// RetrieveCharge loads the current state of a charge
func (g *OmiseGateway) RetrieveCharge(ctx context.Context, chargeID string) (*Charge, error) {
	ctx, span := startSpan(ctx, "omise.retrieve_charge")
	defer span.End()
	span.SetAttributes(attribute.String("payment.charge_id", chargeID))

	ch := &omise.Charge{}
	if err := g.do(ctx, span, func() error {
		return g.client.Do(ch, &operations.RetrieveCharge{ChargeID: chargeID})
	}); err != nil {
		return nil, err
	}
	return fromOmiseCharge(ch), nil
}

// RetrieveEvent fetches an event by id. Webhook bodies are never trusted;
// this call is what proves an event is real.
func (g *OmiseGateway) RetrieveEvent(ctx context.Context, eventID string) (*Event, error) {
	ctx, span := startSpan(ctx, "omise.retrieve_event")
	defer span.End()

	ev := &omise.Event{}
	if err := g.do(ctx, span, func() error {
		return g.client.Do(ev, &operations.RetrieveEvent{EventID: eventID})
	}); err != nil {
		return nil, err
	}

	out := &Event{ID: ev.ID, Key: ev.Key}
	if strings.HasPrefix(ev.Key, "charge.") {
		// Data is decoded as a generic map; round-trip it into a Charge.
		raw, err := json.Marshal(ev.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: event data: %v", ErrProvider, err)
		}
		var ch omise.Charge
		if err := json.Unmarshal(raw, &ch); err != nil {
			return nil, fmt.Errorf("%w: event charge: %v", ErrProvider, err)
		}
		out.Charge = fromOmiseCharge(&ch)
	}
	return out, nil
}

// RefundCharge returns amount of a settled charge to the customer
func (g *OmiseGateway) RefundCharge(ctx context.Context, chargeID string, amount int64) error {
	ctx, span := startSpan(ctx, "omise.refund_charge")
	defer span.End()
	span.SetAttributes(attribute.String("payment.charge_id", chargeID))

	refund := &omise.Refund{}
	return g.do(ctx, span, func() error {
		return g.client.Do(refund, &operations.CreateRefund{ChargeID: chargeID, Amount: amount})
	})
}

// do runs one client call. The operation types live in omise-go's internal
// package, so each call site builds its own client.Do invocation.
func (g *OmiseGateway) do(ctx context.Context, span trace.Span, call func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := call(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "omise request failed")
		return fmt.Errorf("%w: %s", ErrProvider, providerMessage(err))
	}
	return nil
}

// providerMessage extracts Omise's human-readable message when present
func providerMessage(err error) string {
	var oe *omise.Error
	if errors.As(err, &oe) && oe.Message != "" {
		return oe.Message
	}
	return err.Error()
}

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("payment.provider", "omise")),
	)
}

func fromOmiseCharge(ch *omise.Charge) *Charge {
	out := &Charge{
		ID:           ch.ID,
		Status:       string(ch.Status),
		Amount:       ch.Amount,
		Currency:     ch.Currency,
		AuthorizeURI: ch.AuthorizeURI,
		Metadata:     make(map[string]string, len(ch.Metadata)),
	}
	if ch.FailureCode != nil {
		out.FailureCode = *ch.FailureCode
	}
	if ch.FailureMessage != nil {
		out.FailureMessage = *ch.FailureMessage
	}
	for k, v := range ch.Metadata {
		if s, ok := v.(string); ok {
			out.Metadata[k] = s
		}
	}
	return out
}

func toAnyMap(m map[string]string) map[string]interface{} {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
