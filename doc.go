// Package accounts manages user accounts end to end: registration with
// uniqueness guarantees, credential hashing and verification, login lockout,
// email verification tokens, role assignment, and filtered directory search
// with navigable result pages.
//
// Registration:
//   - The first account ever created becomes a verified admin; every later
//     account starts anonymous with a pending email verification token.
//   - Nicknames are caller supplied or generated, and both nickname and email
//     are unique. Concurrent registrations race safely because the database
//     constraints decide the winner and the loser gets a typed duplicate
//     error.
//
// Authentication:
//   - Login failures against a known account are counted with a single
//     atomic statement, and the account locks at the configured maximum.
//     Unknown nicknames, wrong passwords, and unverified accounts are
//     indistinguishable to the caller.
//   - Password reset replaces the credential and clears the lock in one
//     statement.
//
// Search:
//   - UserFilter fields combine with AND; results come back as one page plus
//     the total match count, with self/first/last/next/prev links for
//     navigation.
package accounts
