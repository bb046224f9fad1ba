// Package registry maps stable backend identifiers to adapter factories,
// with credential gating at resolution time.
//
// A [Registry] holds [Entry] values: the metadata a caller needs to display
// a backend (name, credential variables, setup instructions) plus the
// factory that builds its adapter. [Registry.Resolve] checks the entry's
// required environment variables before the factory runs, so a missing
// credential surfaces as a configuration error naming the variable rather
// than as a failed network call later.
//
// Registries are explicitly constructed: [New] builds an empty one,
// [Default] one pre-populated with the built-in backend families. There is
// no package-level instance. Additional OpenAI-compatible backends can be
// declared in a YAML endpoints file and loaded with
// [Registry.LoadEndpointsFile]; each becomes an entry backed by the custom
// adapter.
package registry
