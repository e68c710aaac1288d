// Package service contains the application-specific use cases and business
// logic of the configuration engine. It orchestrates interactions between
// domain objects and repositories (defined in internal/store) to fulfill
// application features.
//
// Key components:
//
//  1. Resolver: computes effective values across the Program → Clinic →
//     Location hierarchy, one key at a time or for the whole catalog in a
//     bounded number of queries.
//  2. Mutator: validates, normalizes, and writes configuration values,
//     computing the override flag and appending audit history atomically.
//  3. Propagator and Validator: fleet-wide value pushes and consistency
//     scans over a program's stored values.
//  4. Explainer: diagnostic inheritance chains and trees.
//  5. Importer and CatalogLoader: bulk ingestion from parsed clinic
//     documents and the declarative key catalog.
//
// The service layer depends on domain entities and repository interfaces
// (from store), but never on specific infrastructure implementations.
package service
