// Package postcrud maps content items of a content-management host (posts,
// pages and any other post type) onto Go values with create, read, update
// and delete operations.
//
// An Item keeps two views of its columns: every known value, and the subset
// changed locally since it was loaded. Only the changed subset is sent on
// update, so values loaded from the host are never written back unchanged.
// Metadata is staged separately and written alongside.
//
// The host itself is abstracted by the Host interface. Implementations are
// provided under host/ (memory, Postgres, Redis, Badger and a remote HTTP
// client for the api package).
//
//	item := postcrud.NewPost(host)
//	item.SetTitle("Hello")
//	item.SetMeta("color", postcrud.String("red"))
//	if err := item.Save(ctx); err != nil {
//		// errors.Is(err, postcrud.ErrHostRejected) ...
//	}
package postcrud
