// Package fields holds the catalog of field types the canvas can instantiate.
// Descriptors are grouped into basic inputs, advanced inputs, and layout
// elements; choice types (select, radio, checkbox) carry option lists once
// placed on a form.
package fields
