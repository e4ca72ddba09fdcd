// Package payments wraps the payment processor behind a small Gateway
// interface: create a charge, look one up, and fetch a webhook event.
//
// OmiseGateway is the production implementation. SandboxGateway keeps
// charges in memory for local development.
//
// Every processor error is wrapped in ErrProvider. Services let it through
// unchanged so the API can show the processor's message to the user.
package payments
