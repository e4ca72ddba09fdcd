// Package repository implements storage for the EatMeetClub API on SurrealDB.
//
// Each repository wraps a database.Database and speaks SurrealQL with named
// parameters. Getters return (nil, nil) when a record does not exist; list
// methods fetch one row more than the page size to report has_more.
//
// Writes that must succeed or fail together (settling a payment with its
// ticket, membership or signup) go through database.Batch, which runs the
// statements inside one BEGIN/COMMIT block.
//
//	repo := NewTicketRepository(db)
//	ticket, err := repo.GetByID(ctx, "ticket:abc123")
//	if err != nil {
//	    return err
//	}
//	if ticket == nil {
//	    return service.ErrTicketNotFound
//	}
package repository
