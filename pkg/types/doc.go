// Package types contains the records shared by the index, the scorer and the
// search: characters, relation rules, relation group memberships and family
// assignments.
package types
