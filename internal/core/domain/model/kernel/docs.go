// Package kernel provides core domain primitives shared across the storyforge
// domain model. It currently contains the UUID value object used to identify
// jobs and books.
//
// The primitives are immutable and validate themselves on construction,
// ensuring domain objects always hold well-formed identifiers.
package kernel
