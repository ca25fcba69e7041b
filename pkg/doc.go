// Package pkg provides the core libraries for Pipfile manifest tooling.
//
// # Overview
//
// The pkg directory is organized by concern:
//
//  1. [pipfile] - The manifest itself: parsing, canonical encoding,
//     validation, and content hashing
//  2. [pep440] / [pep508] - Version, specifier, requirement, and marker
//     grammars the manifest leans on
//  3. [lockfile] - Pipfile.lock reading, writing, and freshness checks
//  4. [convert] - Translation to and from requirements.txt and conda
//  5. [runner] - Execution of [scripts] aliases
//  6. [registry] - Package index metadata lookups
//  7. [cache] / [httputil] / [errors] / [buildinfo] - Shared plumbing
//
// # Data Flow
//
// The typical flow through the tooling:
//
//	Pipfile (TOML)
//	      ↓ pipfile.Parse
//	Manifest ── Validate ──→ Diagnostics
//	      │
//	      ├─ convert ──→ requirements.txt / environment.yml
//	      ├─ runner  ──→ [scripts] child processes
//	      ├─ lockfile ─→ Pipfile.lock hash verification
//	      └─ registry ─→ index metadata (outdated checks)
//
// Everything here declares and inspects dependencies; nothing resolves,
// installs, or builds them.
package pkg
