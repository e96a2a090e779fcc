// Package store provides the interface of the file store used by the request
// handler. The store is the only mutable state shared between concurrent
// workers, it is passed to the handler explicitly instead of being reached
// through global path constants.
//
// Key Components:
//
//   - IFileStore Interface: List, Read and Write of whole files addressed by name.
//
//   - Error System: A structured error type with return codes (RetCNotFound,
//     RetCInvalidName, RetCInternalError) and a human-readable message that is
//     sent to the client as is.
//
// Implementations:
//
//   - Directory Store (dirstore): Files are plain files inside a single directory
//     on local disk. Writes go to a temporary file in the same directory that is
//     renamed over the target, so concurrent readers and writers of the same name
//     never see a torn file (last writer wins). No locks are taken. The directory
//     lives on the shared filesystem, so several worker processes can open their
//     own handle on it.
//     Available in the "github.com/ValentinKolb/poolfs/lib/store/dirstore" package.
//
// Names are used as given: there is no protection against path traversal.
package store
