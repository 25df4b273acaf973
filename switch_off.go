//go:build noalternative

package alternative

const compiledIn = false
