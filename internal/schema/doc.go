// Package schema defines the entity model for the Eventor XML API and a
// declarative decoder that maps documents onto it.
//
// Entities describe their XML shape with exml struct tags: a tag names the
// child element (or a slash path into nested wrappers, or an @attribute),
// and an XMLName marker field pins the document's root tag and whether
// children are matched in declaration order or anywhere. Pointer and slice
// fields are optional; value fields are required and produce a DecodeError
// naming the entity, field and location when missing.
package schema
