// Package coordinator is the routing service: it validates tables against
// the catalog, composes the routing key, resolves the owning shard through
// the registry's consistent-hash ring and forwards the operation over HTTP.
//
// The forwarding contract is one remote call per client request. There are
// no retries, no failover to another shard and no buffering; whatever the
// shard answers (or the transport error when it is unreachable) is
// surfaced to the caller together with the shard's identity.
package coordinator
