// Package model carries the immutable entity types that flow through every
// pipeline step (C13). A MediaEntity is never mutated in place; every field
// update goes through Builder so a step mutates the collection only by
// replacing the entry at its index, never by reaching into a shared struct.
package model

import "time"

// ExtractionMethod is the tagged variant describing how date_taken was
// obtained. Lower accuracy score is better; NONE always sorts last.
type ExtractionMethod int

const (
	MethodNone ExtractionMethod = iota
	MethodJSON
	MethodEXIF
	MethodGuess
	MethodJSONTryhard
	MethodFolderYear
)

// Accuracy returns the ranking score used to resolve conflicts: JSON=1,
// EXIF=2, GUESS=3, JSON_TRYHARD=4, FOLDER_YEAR=5, NONE=99.
func (m ExtractionMethod) Accuracy() int {
	switch m {
	case MethodJSON:
		return 1
	case MethodEXIF:
		return 2
	case MethodGuess:
		return 3
	case MethodJSONTryhard:
		return 4
	case MethodFolderYear:
		return 5
	default:
		return 99
	}
}

func (m ExtractionMethod) String() string {
	switch m {
	case MethodJSON:
		return "JSON"
	case MethodEXIF:
		return "EXIF"
	case MethodGuess:
		return "GUESS"
	case MethodJSONTryhard:
		return "JSON_TRYHARD"
	case MethodFolderYear:
		return "FOLDER_YEAR"
	default:
		return "NONE"
	}
}

// Coordinates is a decimal-degree GPS fix. A (0,0) coordinate is treated as
// absent everywhere in the pipeline (Google Takeout's encoding for "no GPS").
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// IsZero reports whether both components are exactly zero, the Takeout
// convention for "no GPS data recorded".
func (c Coordinates) IsZero() bool { return c.Latitude == 0 && c.Longitude == 0 }

// LatRef returns "N" or "S" for EXIF GPSLatitudeRef.
func (c Coordinates) LatRef() string {
	if c.Latitude < 0 {
		return "S"
	}
	return "N"
}

// LonRef returns "E" or "W" for EXIF GPSLongitudeRef.
func (c Coordinates) LonRef() string {
	if c.Longitude < 0 {
		return "W"
	}
	return "E"
}

// AlbumInfo is the set of physical directories that contributed an album
// association. Kept as a map[string]struct{} to dedupe cheaply; every
// membership claim lives only on the entity that owns it (§9: no
// back-references from albums to entities).
type AlbumInfo struct {
	SourceDirectories map[string]struct{}
}

// NewAlbumInfo builds an AlbumInfo seeded with a single source directory.
func NewAlbumInfo(dir string) AlbumInfo {
	return AlbumInfo{SourceDirectories: map[string]struct{}{dir: {}}}
}

// Merge unions other's source directories into a copy of a and returns it.
func (a AlbumInfo) Merge(other AlbumInfo) AlbumInfo {
	out := map[string]struct{}{}
	for d := range a.SourceDirectories {
		out[d] = struct{}{}
	}
	for d := range other.SourceDirectories {
		out[d] = struct{}{}
	}
	return AlbumInfo{SourceDirectories: out}
}

// FileReference is a physical file discovered in the input tree or
// materialized into the output tree.
type FileReference struct {
	SourcePath string
	TargetPath string // empty until materialized
	IsLink     bool   // true iff TargetPath is a symlink/hardlink/junction
	Deleted    bool   // true once the pipeline has removed SourcePath
}

// MediaEntity is the logical photo/video, possibly backed by several
// physical copies across year and album folders. Immutable: every mutator
// returns a new value built from Builder.
type MediaEntity struct {
	Primary        FileReference
	Secondary      []FileReference
	Albums         map[string]AlbumInfo
	DateTaken      time.Time
	HasDate        bool
	DateAccuracy   int
	DateMethod     ExtractionMethod
	PartnerShared  bool
	ContentDigest  string // sha256 hex, populated by dedup/albummerge once hashed
}

// New constructs an entity for a freshly discovered primary file. albumName
// is empty for year-folder discoveries.
func New(primaryPath string, albumName, albumDir string) MediaEntity {
	e := MediaEntity{
		Primary:    FileReference{SourcePath: primaryPath},
		Albums:     map[string]AlbumInfo{},
		DateMethod: MethodNone,
	}
	if albumName != "" {
		e.Albums[albumName] = NewAlbumInfo(albumDir)
	}
	return e
}

// Builder accumulates field changes and produces a new MediaEntity value,
// standing in for the source's mutable-field/copy-constructor duality (§9).
type Builder struct {
	base MediaEntity
}

// With starts a builder seeded from e. The original e is never modified.
func With(e MediaEntity) *Builder { return &Builder{base: e} }

func (b *Builder) Date(t time.Time, method ExtractionMethod) *Builder {
	b.base.DateTaken = t
	b.base.HasDate = true
	b.base.DateMethod = method
	b.base.DateAccuracy = method.Accuracy()
	return b
}

func (b *Builder) NoDate() *Builder {
	b.base.DateTaken = time.Time{}
	b.base.HasDate = false
	b.base.DateMethod = MethodNone
	b.base.DateAccuracy = MethodNone.Accuracy()
	return b
}

func (b *Builder) PartnerShared(v bool) *Builder {
	b.base.PartnerShared = v
	return b
}

func (b *Builder) ContentDigest(digest string) *Builder {
	b.base.ContentDigest = digest
	return b
}

func (b *Builder) AddSecondary(ref FileReference) *Builder {
	for _, s := range b.base.Secondary {
		if s.SourcePath == ref.SourcePath {
			return b
		}
	}
	b.base.Secondary = append(append([]FileReference{}, b.base.Secondary...), ref)
	return b
}

func (b *Builder) MergeAlbums(other map[string]AlbumInfo) *Builder {
	merged := map[string]AlbumInfo{}
	for k, v := range b.base.Albums {
		merged[k] = v
	}
	for k, v := range other {
		if existing, ok := merged[k]; ok {
			merged[k] = existing.Merge(v)
		} else {
			merged[k] = v
		}
	}
	b.base.Albums = merged
	return b
}

func (b *Builder) PrimaryTarget(target string, isLink bool) *Builder {
	b.base.Primary.TargetPath = target
	b.base.Primary.IsLink = isLink
	return b
}

func (b *Builder) PrimarySource(path string) *Builder {
	b.base.Primary.SourcePath = path
	return b
}

func (b *Builder) PrimaryDeleted() *Builder {
	b.base.Primary.Deleted = true
	return b
}

func (b *Builder) Build() MediaEntity { return b.base }

// FirstAlbumName returns the lexicographically smallest album name, or ""
// if the entity belongs to no album. Used by the REVERSE_SHORTCUT strategy
// (§9 open question: deterministic lexicographic tie-break).
func (e MediaEntity) FirstAlbumName() string {
	first := ""
	for name := range e.Albums {
		if first == "" || name < first {
			first = name
		}
	}
	return first
}

// AlbumGroupKey returns the key used to scope duplicate detection: "" for
// year-only entities, the first album name otherwise.
func (e MediaEntity) AlbumGroupKey() string { return e.FirstAlbumName() }
