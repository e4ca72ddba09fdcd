// Package helpers provides test utilities for exercising the EatMeetClub API
// end to end.
//
// # JWT Helpers
//
// A JWTHelper mints tokens for fixture users; hand its Validator to the
// router under test so the tokens are accepted:
//
//	jh := helpers.NewJWTHelper(t)
//	req := helpers.NewRequest(t, http.MethodPost, "/v1/events/"+id+"/tickets").
//	    WithAuth(jh, member).
//	    WithIdempotencyKey("k1").
//	    WithBody(body).
//	    Build()
//
// # Assertion Helpers
//
//	helpers.AssertStatus(t, rr, http.StatusCreated)
//	helpers.AssertProblemDetails(t, rr, http.StatusConflict, model.ErrCodeConflict)
//	helpers.AssertRecordExists(t, db, "ticket", ticketID)
//
// # Pointer Helpers
//
//	name := helpers.StringPtr("Omakase night")
//	price := helpers.Int64Ptr(150000)
package helpers
