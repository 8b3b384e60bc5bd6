// Package routetree converts a flat route manifest into an ordered forest of
// hierarchical route nodes.
//
// The transform is pure and generic over the node type, so every consumer of a
// manifest (the data engine, the CLI tree printer, the dev server) builds its
// tree through the one Build function and is guaranteed to produce the same
// shape, including the ids of synthetic folder nodes.
package routetree

import "github.com/routekit-dev/routekit/pkg/manifest"

// folderIDPrefix prefixes the id of every synthetic folder node.
const folderIDPrefix = "folder:routes/"

// FolderID returns the id of the synthetic folder node for the given path.
// It is a pure function of the path, so independently built trees agree.
func FolderID(path string) string {
	return folderIDPrefix + path
}

// Node is the contract a tree node type must satisfy for Build.
//
// N is expected to be a pointer type. RoutePath reports the node's path
// segment ("" when pathless); SetRoutePath clears it when the segment moves
// to a synthetic folder ancestor; SetChildren attaches the ordered child list.
type Node[N any] interface {
	RoutePath() string
	SetRoutePath(path string)
	SetChildren(children []N)
}

// MakeNode constructs a childless node from a manifest record.
type MakeNode[N any] func(rec *manifest.Record) N

// MakeFolder constructs a synthetic folder node for a collided path. The
// returned node must carry FolderID(path) as its id and path as its segment;
// Build attaches its children.
type MakeFolder[N any] func(path string) N

// Build transforms the manifest into an ordered forest of root nodes.
//
// Children are selected by ParentID in manifest order, depth first. At every
// level, siblings sharing an identical non-empty path are folded under one
// synthetic folder node per collided path: the level's final order is all
// non-colliding siblings in their original relative order, followed by the
// folder nodes. The folded siblings keep their original relative order inside
// the folder and have their own path cleared, since it is now inherited.
func Build[N Node[N]](m *manifest.Manifest, makeNode MakeNode[N], makeFolder MakeFolder[N]) []N {
	return buildLevel(m, "", makeNode, makeFolder)
}

func buildLevel[N Node[N]](m *manifest.Manifest, parentID string, makeNode MakeNode[N], makeFolder MakeFolder[N]) []N {
	var level []N
	for _, rec := range m.Records() {
		if rec.ParentID != parentID {
			continue
		}
		node := makeNode(rec)
		node.SetChildren(buildLevel(m, rec.ID, makeNode, makeFolder))
		level = append(level, node)
	}
	return foldCollisions(level, makeFolder)
}

// foldCollisions disambiguates siblings that collide on the same non-empty
// path by giving them a synthetic common ancestor. Reordering collided
// siblings to the end of the level is deliberate: it keeps the non-colliding
// siblings' relative order stable no matter where the collisions occurred.
func foldCollisions[N Node[N]](level []N, makeFolder MakeFolder[N]) []N {
	counts := make(map[string]int)
	for _, n := range level {
		if p := n.RoutePath(); p != "" {
			counts[p]++
		}
	}

	var collided []string
	seen := make(map[string]bool)
	for _, n := range level {
		p := n.RoutePath()
		if p != "" && counts[p] > 1 && !seen[p] {
			collided = append(collided, p)
			seen[p] = true
		}
	}
	if len(collided) == 0 {
		return level
	}

	folded := make([]N, 0, len(level))
	for _, n := range level {
		if p := n.RoutePath(); p == "" || counts[p] == 1 {
			folded = append(folded, n)
		}
	}
	for _, path := range collided {
		var children []N
		for _, n := range level {
			if n.RoutePath() == path {
				n.SetRoutePath("")
				children = append(children, n)
			}
		}
		folder := makeFolder(path)
		folder.SetChildren(children)
		folded = append(folded, folder)
	}
	return folded
}
