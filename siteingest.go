// Package siteingest provides a long-running browser crawler that captures
// web pages for a retrieval-augmented knowledge store. It discovers pages
// breadth-first from configured seeds, keeps to an allow-list of domains,
// and hands each captured page bundle to a storage sink.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., rod/, goquery/, sqlite/).
package siteingest
