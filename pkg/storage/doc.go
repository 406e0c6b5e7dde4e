// Package storage provides the adaptive media-storage backends.
//
// The selector picks the remote object store only when the deployment
// is production-like and credentials are complete; everything else,
// including any runtime remote failure, lands on local disk. Callers
// only ever see a media.Reference plus a Result describing which
// backend served the call.
package storage
