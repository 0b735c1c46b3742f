// Package mock provides an in-memory tokenvault.TokenRepository for tests of code
// that consumes stored credentials.
//
// Results are injectable per operation. Writes are kept in Storage under the same
// key the real repository would use, and later reads return them.
package mock
