// Package task owns per-user to-do items.
//
// Service is the ownership guard: every read and write of a task is checked
// against the caller's Principal, and creation first confirms the owner with
// the identity service. Handler binds it to Gin routes:
//
//	POST   /tasks
//	GET    /tasks?userId=&status=
//	GET    /tasks/:id
//	PUT    /tasks/:id
//	DELETE /tasks/:id
package task
