// Package client is the caller side of the bearer protocol.
//
// A TokenStore keeps the current session in one JSON file, written whole or
// not at all, and broadcasts signed-in/signed-out changes. BearerTransport
// injects the stored token into every request except the public auth
// endpoints. API is a typed client for both services that clears the
// session whenever an authenticated call is answered with 401.
//
//	store, _ := client.NewTokenStore(path)
//	api, _ := client.NewAPI(client.Config{IdentityURL: id, TaskURL: tasks}, store, log)
//	if _, err := api.Login(ctx, "alice", "secret"); err != nil { ... }
//	tasks, err := api.ListTasks(ctx, "")
package client
