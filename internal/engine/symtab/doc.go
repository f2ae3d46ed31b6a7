// Package symtab implements the symbol tables of the front end: one hash table
// per lexical scope and a bounded stack of scopes with innermost-first lookup.
//
// Each table hashes identifiers on their first character into 27 buckets
// (a..z and _). Every bucket is a singly linked chain and new records are
// prepended, so a chain lists its records last-installed-first.
//
// Tables and stacks are not safe for concurrent use. Callers sharing one
// across goroutines must provide their own locking.
package symtab
