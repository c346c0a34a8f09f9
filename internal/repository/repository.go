// Package repository declares the data access interfaces used by the services.
// Implementations live in subpackages (postgres) and contain no business logic.
// Lookups that match no row return sql.ErrNoRows unwrapped so services can map it.
package repository

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is one page of T plus the total row count.
type PageResult[T any] struct {
	Items []T
	Total int
}
