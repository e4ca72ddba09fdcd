// Package fixtures creates EatMeetClub records for integration tests.
//
// Factories write through the real repositories, so fixtures go through the
// same queries the API uses:
//
//	f := fixtures.New(tdb.DB)
//	host := f.CreateRestaurantOwner(t)
//	r := f.CreateRestaurant(t, host)
//	ev := f.CreatePublishedEvent(t, r, func(o *fixtures.EventOpts) { o.Capacity = 2 })
//
// Emails and names carry random suffixes so fixtures never collide.
package fixtures
