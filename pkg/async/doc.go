// Package async provides detached execution of error-returning functions.
//
// It exists for fire-and-forget work whose outcome still needs to be
// observable: the caller gets a Future it may Await, poll with IsComplete,
// or simply drop. The session store uses it for the background logout call
// that must not block the synchronous local state transition.
//
//	future := async.Exec(context.WithoutCancel(ctx), client.DoCleanup)
//	if err := future.AwaitWithTimeout(5 * time.Second); err != nil {
//		log.Warn("cleanup still pending", "error", err)
//	}
package async
