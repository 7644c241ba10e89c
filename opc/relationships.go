package opc

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/xlcore-go/xlcore/internal/xmlscan"
	"github.com/xlcore-go/xlcore/internal/xmlw"
)

const relsNamespace = "http://schemas.openxmlformats.org/package/2006/relationships"

// Relationship is one entry of a .rels part.
type Relationship struct {
	ID         string
	Type       string
	Target     string
	TargetMode string // "" (internal) or "External"
}

// Relationships holds the relationship set for a single part in one owning
// slice (insertion order), indexed by rId through a map of slice positions.
// Lookups by target or by type scan the slice.
type Relationships struct {
	order []Relationship
	byID  map[string]int   // rId -> index into order
	byRef int              // next free numeric id suffix
}

// ErrDuplicateRelationshipID is returned by Add when id already names a
// different relationship.
type ErrDuplicateRelationshipID struct{ ID string }

func (e *ErrDuplicateRelationshipID) Error() string {
	return fmt.Sprintf("opc: duplicate relationship id %q", e.ID)
}

// NewRelationships returns an empty set.
func NewRelationships() *Relationships {
	return &Relationships{byID: map[string]int{}, byRef: 1}
}

// Add inserts rel. If rel.ID is empty, the next free "rIdN" slot (scanning
// forward from the high-water mark) is assigned. Re-adding an existing,
// different rId fails with ErrDuplicateRelationshipID; re-adding the same
// rId with identical content is a no-op.
func (r *Relationships) Add(rel Relationship) (Relationship, error) {
	if rel.ID == "" {
		for {
			cand := "rId" + strconv.Itoa(r.byRef)
			r.byRef++
			if _, used := r.byID[cand]; !used {
				rel.ID = cand
				break
			}
		}
	} else if idx, exists := r.byID[rel.ID]; exists {
		if r.order[idx] != rel {
			return Relationship{}, &ErrDuplicateRelationshipID{ID: rel.ID}
		}
		return rel, nil
	}
	if rel.Type == "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" && rel.TargetMode == "" {
		rel.TargetMode = "External"
	}
	r.byID[rel.ID] = len(r.order)
	r.order = append(r.order, rel)
	if n, err := strconv.Atoi(strings.TrimPrefix(rel.ID, "rId")); err == nil && n >= r.byRef {
		r.byRef = n + 1
	}
	return rel, nil
}

// Get returns the relationship with the given rId.
func (r *Relationships) Get(id string) (Relationship, bool) {
	idx, ok := r.byID[id]
	if !ok {
		return Relationship{}, false
	}
	return r.order[idx], true
}

// All returns the relationships in insertion (write) order.
func (r *Relationships) All() []Relationship {
	return r.order
}

// ByTarget finds the first relationship whose stored Target equals target
// exactly (as written, not resolved), scanning the owning slice.
func (r *Relationships) ByTarget(target string) (Relationship, bool) {
	for _, rel := range r.order {
		if rel.Target == target {
			return rel, true
		}
	}
	return Relationship{}, false
}

// ByType finds the first relationship whose Type equals relType, the
// lookup the workbook and worksheet part loaders use to find their styles,
// sharedStrings, comments, and vmlDrawing relationships without already
// knowing the rId.
func (r *Relationships) ByType(relType string) (Relationship, bool) {
	for _, rel := range r.order {
		if rel.Type == relType {
			return rel, true
		}
	}
	return Relationship{}, false
}

// ParseRelationships parses one .rels XML document.
func ParseRelationships(data []byte) (*Relationships, error) {
	r := NewRelationships()
	walker := xmlscan.NewWalker(data)
	for {
		_, tag, ok := walker.Next()
		switch tag.Name {
		case "Relationships":
			if ns, present := tag.Attr("xmlns"); present && ns != relsNamespace {
				return nil, &ErrUnknownNamespace{Got: ns}
			}
		case "Relationship":
			id, _ := tag.Attr("Id")
			typ, _ := tag.Attr("Type")
			target, _ := tag.Attr("Target")
			mode, _ := tag.Attr("TargetMode")
			if _, err := r.Add(Relationship{ID: id, Type: typ, Target: target, TargetMode: mode}); err != nil {
				return nil, err
			}
		}
		if !ok {
			break
		}
	}
	return r, nil
}

// Write renders the .rels document in insertion order; relationship order
// within a .rels part is write-order-preserving.
func (r *Relationships) Write() []byte {
	w := xmlw.New()
	w.OpenBare("Relationships").Attr("xmlns", relsNamespace)
	for _, rel := range r.order {
		w.Open("Relationship").Attr("Id", rel.ID).Attr("Type", rel.Type).Attr("Target", rel.Target)
		if rel.TargetMode != "" {
			w.Attr("TargetMode", rel.TargetMode)
		}
		w.Close()
	}
	w.Close()
	return w.Bytes()
}

// RelsPathFor returns the .rels part path for a part at dir/name, e.g.
// "xl/workbook.xml" -> "xl/_rels/workbook.xml.rels".
func RelsPathFor(partPath string) string {
	dir, name := splitPath(partPath)
	if dir == "" {
		return "_rels/" + name + ".rels"
	}
	return dir + "/_rels/" + name + ".rels"
}

func splitPath(p string) (dir, name string) {
	p = strings.TrimPrefix(p, "/")
	i := strings.LastIndexByte(p, '/')
	if i < 0 {
		return "", p
	}
	return p[:i], p[i+1:]
}

// ResolvePath resolves target relative to the directory containing
// basePart, treating a leading "/" as package-absolute and normalizing
// ".."/"." segments. External-mode targets are returned unchanged.
func ResolvePath(basePart, target string, targetMode string) string {
	if targetMode == "External" {
		return target
	}
	if strings.HasPrefix(target, "/") {
		return normalizeSegments(strings.TrimPrefix(target, "/"))
	}
	baseDir, _ := splitPath(basePart)
	joined := target
	if baseDir != "" {
		joined = baseDir + "/" + target
	}
	return normalizeSegments(joined)
}

func normalizeSegments(p string) string {
	parts := strings.Split(p, "/")
	out := make([]string, 0, len(parts))
	for _, seg := range parts {
		switch seg {
		case ".", "":
			continue
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, seg)
		}
	}
	return strings.Join(out, "/")
}

// SortedKeys returns m's keys in sorted order, for deterministic map
// iteration when writing any part keyed by string or integer id.
func SortedKeys[K constraints.Ordered, V any](m map[K]V) []K {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
