// Package session obtains the Bitwarden session key an export runs under.
//
// The Provider checks login state once, then unlocks or logs in through the
// vault CLI, letting it prompt on the terminal. The resulting Token redacts
// itself when formatted or logged; callers use Reveal only at the subprocess
// boundary.
package session
