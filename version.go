package turnstile

// Version is the release of the library and the turnstile binary.
// Release builds override it with -ldflags "-X github.com/aretw0/turnstile.Version=...".
var Version = "0.1.0-dev"
