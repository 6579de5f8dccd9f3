// Package canvas implements the ordered field composition behind the form
// builder canvas: drop insertion at any position, removal, reordering,
// visibility toggling, field settings, and single selection. Every committed
// mutation is reported to subscribers with a copied Snapshot.
package canvas
