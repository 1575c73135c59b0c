// Package dispatch runs record fetches on a bounded worker pool.
//
// All identifiers are queued up front. PoolSize workers pull from the queue
// and send finished records to the calling goroutine, which is the only
// writer of the result slice. Records therefore arrive in completion order,
// not input order.
//
// Example usage:
//
//	d := dispatch.New(fetcher, dispatch.Config{Workers: dispatch.PoolSize(4)})
//	records, err := d.Run(ctx, isbns)
//
// Run returns exactly one record per identifier, duplicates included. An
// extraction error or a panic inside a fetch becomes the
// "Error fetching details" placeholder for that identifier. Cancelling ctx
// aborts the run and no records are returned.
package dispatch
