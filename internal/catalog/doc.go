// Package catalog tracks table schemas: name, partition key field and
// optional sort key field. Tables are immutable once registered and are
// never deleted; the catalog exists to validate that operations target a
// known table.
package catalog
