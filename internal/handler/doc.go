// Package handler provides HTTP request handlers for the EatMeetClub API.
//
// Each handler struct wraps the small slice of a service it needs, declared
// as an interface next to the handler (AuthService, TicketService, ...), so
// the handlers can be exercised with httptest and function-field mocks.
//
// # Handler Pattern
//
//   - Constructor function (NewXxxHandler) accepts the service it serves
//   - Methods handle specific HTTP endpoints, routed with Go 1.22 method patterns
//   - Response helpers from response.go standardize output format
//   - Service errors go through MapServiceError to RFC 9457 Problem Details
//
// # Response Format
//
//   - WriteData: single resource as {data, _links}
//   - WriteCollection: {data, pagination{limit, offset, has_more}}
//   - WriteError: application/problem+json body
//
// # Authentication
//
// middleware.Auth and middleware.OptionalAuth put the caller's id and role
// in the request context. currentActor turns them into a service.Actor and
// answers 401 when the caller is anonymous.
//
// # Example Usage
//
//	tickets := NewTicketHandler(ticketService)
//	mux.Handle("POST /v1/events/{eventId}/tickets", auth(http.HandlerFunc(tickets.Purchase)))
//	mux.Handle("GET /v1/tickets", auth(http.HandlerFunc(tickets.ListMine)))
package handler
