// Package models contains the GORM persistence models of the portal.
//
// Domain types carry no ORM tags. Each model here owns its table mapping and
// converts to and from its domain type with ToDomain / <Name>ModelFromDomain.
// Composite tenant-scoped unique indexes live in the SQL migrations.
package models
