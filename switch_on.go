//go:build !noalternative

package alternative

// compiledIn is false when built with -tags noalternative. Every site then
// emits only its default code.
const compiledIn = true
