package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/omise/omise-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettledStatus(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		ChargeSuccessful:     ChargeSuccessful,
		ChargeFailed:         ChargeFailed,
		ChargeExpired:        ChargeFailed,
		ChargeReversed:       ChargeFailed,
		ChargePending:        ChargePending,
		"awaiting_authorize": ChargePending,
		"":                   ChargePending,
	}
	for in, want := range tests {
		assert.Equal(t, want, SettledStatus(in), "status %q", in)
	}
}

func TestProviderMessage_UsesOmiseMessage(t *testing.T) {
	t.Parallel()

	err := &omise.Error{Code: "invalid_card", Message: "number is invalid"}
	assert.Equal(t, "number is invalid", providerMessage(err))
	assert.Equal(t, "boom", providerMessage(errors.New("boom")))
}

func TestOmiseGateway_Do(t *testing.T) {
	t.Parallel()

	g := &OmiseGateway{}

	t.Run("wraps provider errors", func(t *testing.T) {
		t.Parallel()
		_, span := startSpan(context.Background(), "test")
		defer span.End()

		err := g.do(context.Background(), span, func() error {
			return &omise.Error{Code: "invalid_charge", Message: "charge was not found"}
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrProvider)
		assert.Contains(t, err.Error(), "charge was not found")
	})

	t.Run("cancelled context skips the call", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, span := startSpan(ctx, "test")
		defer span.End()

		called := false
		err := g.do(ctx, span, func() error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		_, span := startSpan(context.Background(), "test")
		defer span.End()

		assert.NoError(t, g.do(context.Background(), span, func() error { return nil }))
	})
}

func TestFromOmiseCharge_CopiesFailureAndMetadata(t *testing.T) {
	t.Parallel()

	code, msg := "insufficient_fund", "insufficient funds in the account"
	ch := &omise.Charge{
		Amount:         150000,
		Currency:       "thb",
		Status:         "failed",
		FailureCode:    &code,
		FailureMessage: &msg,
		Metadata:       map[string]interface{}{"payment_id": "payment:1", "n": 3},
	}
	ch.ID = "chrg_1"

	out := fromOmiseCharge(ch)

	assert.Equal(t, "chrg_1", out.ID)
	assert.Equal(t, "failed", out.Status)
	assert.Equal(t, msg, out.FailureMessage)
	assert.Equal(t, map[string]string{"payment_id": "payment:1"}, out.Metadata)
}

// ============================================================================
// SandboxGateway Tests
// ============================================================================

func TestSandboxGateway_ChargeSettlesOnRetrieve(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g := NewSandboxGateway()

	ch, err := g.CreateCharge(ctx, ChargeRequest{
		Amount:     50000,
		Currency:   "thb",
		SourceType: "promptpay",
		ReturnURI:  "http://localhost:3000/payments/payment:1/verify",
	})
	require.NoError(t, err)
	assert.Equal(t, ChargePending, ch.Status)
	assert.Equal(t, "http://localhost:3000/payments/payment:1/verify", ch.AuthorizeURI)

	got, err := g.RetrieveCharge(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, ChargeSuccessful, got.Status)
}

func TestSandboxGateway_FailedOutcome(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g := NewSandboxGateway()
	g.SetOutcome(ChargeFailed)

	ch, err := g.CreateCharge(ctx, ChargeRequest{Amount: 100, Currency: "thb", CardToken: "tokn_test"})
	require.NoError(t, err)

	got, err := g.RetrieveCharge(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, ChargeFailed, got.Status)
	assert.NotEmpty(t, got.FailureMessage)
}

func TestSandboxGateway_NoPaymentMethod(t *testing.T) {
	t.Parallel()

	_, err := NewSandboxGateway().CreateCharge(context.Background(), ChargeRequest{Amount: 100})
	assert.ErrorIs(t, err, ErrNoPaymentMethod)
}

func TestSandboxGateway_UnknownCharge_IsProviderError(t *testing.T) {
	t.Parallel()

	_, err := NewSandboxGateway().RetrieveCharge(context.Background(), "chrg_missing")
	assert.ErrorIs(t, err, ErrProvider)

	_, err = NewSandboxGateway().RetrieveEvent(context.Background(), "evnt_missing")
	assert.ErrorIs(t, err, ErrProvider)
}

func TestSandboxGateway_RefundCharge(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g := NewSandboxGateway()

	ch, err := g.CreateCharge(ctx, ChargeRequest{Amount: 1000, Currency: "thb", CardToken: "tokn_test"})
	require.NoError(t, err)

	t.Run("pending charge is not refundable", func(t *testing.T) {
		err := g.RefundCharge(ctx, ch.ID, 1000)
		assert.ErrorIs(t, err, ErrProvider)
	})

	_, err = g.RetrieveCharge(ctx, ch.ID)
	require.NoError(t, err)

	require.NoError(t, g.RefundCharge(ctx, ch.ID, 1000))
	assert.Equal(t, int64(1000), g.Refunded(ch.ID))

	err = g.RefundCharge(ctx, ch.ID, 1)
	assert.ErrorIs(t, err, ErrProvider)
}
