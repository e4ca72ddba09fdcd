// Package model defines the records, request bodies and error types shared by
// every layer of the EatMeetClub API.
//
// # Records
//
//   - User: an account with a role (member, restaurant, admin)
//   - Restaurant, MenuItem: venues and their dishes
//   - DiningEvent, Ticket: hosted meals and seat purchases
//   - Payment: one checkout attempt; also the billing record
//   - MembershipPlan, Membership, SignupIntent: paid memberships
//   - Template, Contract: back-office documents
//   - FeatureFlag, Memory, Notification
//
// Money is always an int64 in the currency's minor unit (satang, cents).
//
// # Validation
//
// Request types expose Validate() []FieldError. Handlers turn a non-empty
// result into a 422 via NewValidationError:
//
//	if errs := req.Validate(); len(errs) > 0 {
//	    WriteError(w, model.NewValidationError(errs))
//	    return
//	}
//
// # Errors
//
// ProblemDetails implements RFC 9457 and is the only error body the API writes.
package model
