// Package registry is the source of truth for which shards exist and how
// to reach them. It owns the consistent-hash ring: a shard enters the ring
// if and only if it is registered here, so address bookkeeping and ring
// membership cannot diverge.
//
// Two limitations of the design are deliberate:
//
//   - There is no failure detection. A shard is assumed reachable forever
//     once registered; Deregister exists as an operator hook but nothing in
//     the system calls it automatically.
//   - Membership changes rewire routing instantly but move no data. A
//     record written before a shard joined may route to the new shard
//     afterwards and appear missing until written again.
package registry
