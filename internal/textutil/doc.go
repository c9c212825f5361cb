// Package textutil provides text processing utilities for mention scanning,
// message truncation, and filename sanitization.
//
// Mention extraction follows the @token convention: a token is the maximal
// run of word characters after an @. Tokens are candidates only; matching
// them against the live roster is the caller's concern.
package textutil
