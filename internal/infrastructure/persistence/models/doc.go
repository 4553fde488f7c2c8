// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: BaseModel and AggregateModel
//   - catalog.go: product cards
//   - inventory.go: FIFO lots, allocations, stock movements, supply rejections
//   - trade.go: sales orders and supplier orders with their lines
//   - finance.go: finance transactions
//   - planning.go: planning inputs and frozen supply plans
//
// The schema itself is owned by the SQL migrations; AllModels exists for
// SQLite-backed tests that build the schema with AutoMigrate.
package models
