// Package keys builds the composite routing key shared by the coordinator
// and the shard nodes. The composite key, not the table schema, decides
// shard placement, so writers and readers must compose it identically.
package keys

// Separator joins the partition key and the sort key.
const Separator = ":"

// Composite returns the routing and storage key for a record: "key:sortKey"
// when a sort key is present, the bare key otherwise.
func Composite(key, sortKey string) string {
	if sortKey == "" {
		return key
	}
	return key + Separator + sortKey
}
