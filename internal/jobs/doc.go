// Package jobs runs the background work that keeps EatMeetClub state moving
// when no request arrives to move it.
//
//   - Reconciler re-verifies pending payments with the processor and expires
//     abandoned checkouts.
//   - Housekeeper lapses ended memberships, completes finished dining events
//     and purges expired refresh tokens.
//
// Both share one loop: an initial short delay, then a fixed interval, with
// each pass bounded by its own timeout. Start and Stop are safe to call
// repeatedly; Stop waits for an in-progress pass.
package jobs
