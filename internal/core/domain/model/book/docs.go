// Package book provides domain entities and business logic for personalized
// book production. It implements the Book aggregate root with step-by-step
// generation progress tracking and print geometry validation.
//
// The package includes:
//   - Book: The aggregate root tying an order reference to its production state
//   - Step/StepStatus: Per-pipeline-stage progress with artifact tracking
//   - PrintSpec: A value object for trim size, bleed, and raster resolution
//   - Status: The Draft -> Generating -> Ready -> Printed production lifecycle
//
// Key business rules:
//   - Pipeline stages run strictly in order; a stage starts only when every
//     earlier stage is done
//   - A book becomes Ready only when all stages produced their artifacts
//   - Print geometry is validated once on construction and treated as
//     immutable afterwards
//
// The package follows Domain-Driven Design principles, providing rich domain
// behavior, encapsulation, and validation to ensure business rules are enforced.
package book
