// Package threadpool implements the thread-backed worker pool.
//
// Workers are goroutines pinned to their own OS thread with runtime.LockOSThread.
// They run the connection handler inside the server process and share its
// memory, so all workers use the same store handle. No synchronization is added
// around file access.
package threadpool
