// Package store resolves live objects from Redis.
//
// A [Redis] is a [lang.Retriever]: install it as a fallback of
// [lang.Objects] and names that no registered object answers are looked up
// as Redis keys. Hashes expose their fields as sub-accessors, lists and sets
// render as arrays, and plain strings render as themselves.
//
//	r := store.New(store.Options{Addr: "localhost:6379", Prefix: "ui:"})
//	defer r.Close()
//
//	st := lang.NewState(tmpl)
//	st.SetObjects(lang.NewObjects(r))
//
// With the key "ui:window" holding a hash with field "title", the template
// "{window.title}" realizes to the field value.
package store
