// Package service implements the business logic of the EatMeetClub API.
//
// Handlers call services; services call repositories through small
// interfaces they declare themselves, so tests swap in in-memory fakes.
//
// # Service Pattern
//
//   - NewXxxService takes an XxxServiceConfig with its repositories and
//     collaborators, plus an optional Now clock
//   - Methods take an Actor (user id and role) when access depends on who asks
//   - Request bodies are checked with NewValidationError(req.Validate())
//   - Failures are sentinel errors (ErrEventNotFound) or typed errors
//     (ValidationError, SoldOutError, PaymentFailedError) that the handler
//     layer maps onto problem responses
//
// # Checkouts
//
// PaymentService owns the processor. Tickets, memberships and signups each
// create their pending record and hand a checkout to it; settlement then
// moves the payment and the record to their final state in one transaction,
// whether it is triggered by the return page, a webhook or the reconciler.
//
//	result, err := tickets.PurchaseTickets(ctx, actor, eventID, &model.PurchaseTicketsRequest{
//	    Quantity:        2,
//	    CheckoutOptions: model.CheckoutOptions{SourceType: "promptpay"},
//	})
//	// redirect to result.AuthorizeURI, then
//	payment, err := payments.VerifyPayment(ctx, &actor, result.Payment.ID)
//
// Every settlement is pushed to the LiveFeed and emailed through the
// NotificationService.
package service
