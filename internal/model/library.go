// Package model defines the internal data structures used by the compliance engine.
package model

import (
	"fmt"
	"time"
)

// Sentinel values stored in Library string fields when a lookup could not be
// completed. They are plain data, not errors: a library with a sentinel URL is
// still a valid, saveable library.
const (
	// NoCopyrightFound is stored in Library.Copyright when neither the source
	// archive nor the license text yielded any copyright statement.
	NoCopyrightFound = "no copyright found"

	// URLRateLimited is stored in Library.LicenseURL when the external
	// code-hosting API answered with a rate-limit response.
	URLRateLimited = "rate-limited"

	// URLNotFound is stored in Library.LicenseURL or Library.SourceCodeURL
	// when the lookup completed but produced no result.
	URLNotFound = "not-found"
)

// Library is a single third-party software component, deduplicated globally by
// (Namespace, Name, Version, Type). A blank namespace means "no namespace";
// it is never part of the identity comparison beyond that.
type Library struct {
	ID uint

	Namespace string // e.g. "org.apache.commons"; blank for ecosystems without one
	Name      string
	Version   string
	Type      string // ecosystem/package type (e.g. "maven", "npm", "conan")

	OriginalLicense string        // free-text license declaration as uploaded
	Licenses        []LicenseLink // ordered AND/OR license chain, see LicenseLink

	LicenseToPublish []*License // canonical set chosen for publishing
	LicenseOfFiles   []*License // licenses actually found in the files

	// LicenseRisk is derived from LicenseToPublish on every save and is never
	// authoritative on its own.
	LicenseRisk *LicenseRisk

	Copyright     string
	SourceCodeURL string
	LicenseURL    string
	LicenseText   string

	ErrorLog []ErrorLogEntry

	Reviewed         bool
	LastReviewedDate time.Time
	CreatedDate      time.Time
}

// Label returns the archive-index lookup key for the library:
// "namespace:name:type", with the namespace segment omitted when absent.
func (l *Library) Label() string {
	if l.Namespace == "" {
		return l.Name + ":" + l.Type
	}
	return l.Namespace + ":" + l.Name + ":" + l.Type
}

// IdentityKey returns the full deduplication key (namespace, name, version,
// type). Two libraries with equal identity keys are the same library.
func (l *Library) IdentityKey() string {
	return l.Namespace + ":" + l.Name + ":" + l.Version + ":" + l.Type
}

// GroupKey returns the version-independent identity (namespace, name, type).
// Project diffing treats two versions of the same library as "the same
// library" using this key.
func (l *Library) GroupKey() string {
	return l.Namespace + ":" + l.Name + ":" + l.Type
}

// SameIdentity reports whether two libraries denote the same component at the
// same version.
func (l *Library) SameIdentity(o *Library) bool {
	return l.Namespace == o.Namespace &&
		l.Name == o.Name &&
		l.Version == o.Version &&
		l.Type == o.Type
}

// HasUsableSourceURL reports whether SourceCodeURL points at something that
// can actually be downloaded (set, and not one of the sentinel values).
func (l *Library) HasUsableSourceURL() bool {
	switch l.SourceCodeURL {
	case "", URLRateLimited, URLNotFound:
		return false
	}
	return true
}

// JoinType is the connector between one license-chain link and the next.
type JoinType string

const (
	JoinNone JoinType = ""    // terminal link only
	JoinAnd  JoinType = "AND" // all members apply
	JoinOr   JoinType = "OR"  // publisher may choose one member
)

// LicenseLink is one element of a library's ordered license chain. The chain
// encodes a license expression: "Apache-2.0 OR MIT" becomes two links where
// the first carries JoinOr and the last carries JoinNone.
type LicenseLink struct {
	License *License
	OrderID int      // contiguous from 0
	Join    JoinType // JoinNone on the last link, JoinAnd/JoinOr otherwise
}

// ValidateChain checks the structural invariants of a license chain:
// order ids contiguous from 0, a join type on every link except the last,
// and no join type on the last.
func ValidateChain(links []LicenseLink) error {
	for i, link := range links {
		if link.OrderID != i {
			return fmt.Errorf("%w: license chain order id %d at position %d", ErrValidation, link.OrderID, i)
		}
		last := i == len(links)-1
		if last && link.Join != JoinNone {
			return fmt.Errorf("%w: last license chain link carries join type %q", ErrValidation, link.Join)
		}
		if !last && link.Join == JoinNone {
			return fmt.Errorf("%w: license chain link %d is missing a join type", ErrValidation, i)
		}
	}
	return nil
}

// ChainLicenses returns the licenses of the chain in order.
func ChainLicenses(links []LicenseLink) []*License {
	out := make([]*License, 0, len(links))
	for _, link := range links {
		out = append(out, link.License)
	}
	return out
}

// ChainHasOr reports whether any link of the chain is joined by OR.
func ChainHasOr(links []LicenseLink) bool {
	for _, link := range links {
		if link.Join == JoinOr {
			return true
		}
	}
	return false
}
