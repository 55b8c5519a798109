// Package di provides a small scoped dependency-injection container.
//
// Components are registered during a discovery phase (AddComponent, Provide,
// Supply, AddSubscriber) and the container is then finalized. After Finalize
// the registry is read-only and components can be resolved, injected into
// tagged struct fields and notified of events.
//
// Supported scopes:
//   - dependent: a new instance per injection, destroyed with its parent
//   - singleton and application: one instance for the container lifetime
//   - custom scopes declared in Markers and activated with ActivateScope
//
// Candidates for an injection point are matched by type and qualifiers.
// Alternatives are preferred, then the highest rank wins.
package di
