package model

import (
	"regexp"
	"strings"
	"time"
)

// UploadState is the small state machine every project carries for its one
// long-running operation: asynchronous dependency ingestion.
type UploadState string

const (
	UploadIdle       UploadState = "IDLE"
	UploadProcessing UploadState = "PROCESSING"
	UploadOK         UploadState = "OK"
	UploadFailure    UploadState = "FAILURE"
)

// Project is one tracked product version. Projects form a backward chain via
// PreviousProject ("version 3 supersedes version 2"); the chain is expected to
// be acyclic, but walkers over it still guard against cycles.
type Project struct {
	ID uint

	Name    string
	Version string

	PreviousProjectID *uint
	PreviousProject   *Project

	// Disclaimer is the legal disclaimer text embedded in the delivery bundle.
	Disclaimer string

	// UploadFilter is a newline-separated list of regular expressions; any
	// incoming dependency whose name matches one of them is dropped before
	// dedup. Invalid patterns are skipped.
	UploadFilter string

	UploadState UploadState

	Delivered     bool
	DeliveredDate time.Time
	CreatedDate   time.Time

	Dependencies []*Dependency
}

// FilterPatterns compiles the project's upload filter into usable regexps.
// Blank lines and patterns that fail to compile are dropped.
func (p *Project) FilterPatterns() []*regexp.Regexp {
	var patterns []*regexp.Regexp
	for _, line := range strings.Split(p.UploadFilter, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		re, err := regexp.Compile(line)
		if err != nil {
			continue
		}
		patterns = append(patterns, re)
	}
	return patterns
}

// Libraries returns the libraries attached to the project via its
// dependencies, in dependency order.
func (p *Project) Libraries() []*Library {
	out := make([]*Library, 0, len(p.Dependencies))
	for _, d := range p.Dependencies {
		if d.Library != nil {
			out = append(out, d.Library)
		}
	}
	return out
}

// Dependency joins a Library to a Project. One row per (project, library).
type Dependency struct {
	ID        uint
	ProjectID uint
	LibraryID uint
	Library   *Library

	// AddedManually distinguishes hand-entered dependencies from uploaded ones.
	AddedManually bool

	// EligibleForPublishing controls whether the dependency appears in
	// publish-flavored exports and delivery bundles. Defaults to true; a
	// dependency is excluded only by an explicit reviewer decision.
	EligibleForPublishing bool

	AddedDate time.Time
	Comment   string
}
