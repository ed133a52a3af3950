// Package integration contains the Integration bounded context.
// This context manages the connection to the remote catalog platform.
//
// Key concepts:
//   - CatalogGateway: Port interface for reading and mutating the remote catalog
//   - RemoteProduct: Value object for a catalog item on the platform, used both
//     as the desired payload pushed upstream and the actual state read back
//   - SyncPlan: The create/update/delete reconciliation plan keyed by handle
//   - ItemResult: Structured per-item outcome of a mutation pass
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
