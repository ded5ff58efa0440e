package tree

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Step is one component of a tree path: a key, optionally indexing into a
// list value.
type Step struct {
	Key   string
	Index int // -1 when the step does not index a list
}

// ParsePath parses paths of the form "clauses[0].children[1].Number".
// Keys may contain any characters except '.' and '['.
func ParsePath(path string) ([]Step, error) {
	if path == "" {
		return nil, eris.New("tree: empty path")
	}
	segs := strings.Split(path, ".")
	steps := make([]Step, 0, len(segs))
	for _, seg := range segs {
		step := Step{Key: seg, Index: -1}
		if i := strings.IndexByte(seg, '['); i >= 0 {
			if !strings.HasSuffix(seg, "]") {
				return nil, eris.Errorf("tree: malformed segment %q in path %q", seg, path)
			}
			idx, err := strconv.Atoi(seg[i+1 : len(seg)-1])
			if err != nil || idx < 0 {
				return nil, eris.Errorf("tree: bad index in segment %q", seg)
			}
			step.Key, step.Index = seg[:i], idx
		}
		if step.Key == "" {
			return nil, eris.Errorf("tree: empty key in path %q", path)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// Resolve walks root to the node containing the path's final key and
// returns that node together with the key. The final step must name a
// field, not index into a list.
func Resolve(root *Node, path string) (*Node, string, error) {
	steps, err := ParsePath(path)
	if err != nil {
		return nil, "", err
	}
	cur := root
	for i, step := range steps {
		last := i == len(steps)-1
		if last && step.Index < 0 {
			if !cur.Has(step.Key) {
				return nil, "", eris.Errorf("tree: path %q: key %q not found", path, step.Key)
			}
			return cur, step.Key, nil
		}
		v, ok := cur.Get(step.Key)
		if !ok {
			return nil, "", eris.Errorf("tree: path %q: key %q not found", path, step.Key)
		}
		if step.Index >= 0 {
			list := v.List()
			if list == nil {
				return nil, "", eris.Errorf("tree: path %q: %q is not a list", path, step.Key)
			}
			if step.Index >= len(list) {
				return nil, "", eris.Errorf("tree: path %q: index %d out of range", path, step.Index)
			}
			v = list[step.Index]
		}
		if last {
			return nil, "", eris.Errorf("tree: path %q does not end at a field", path)
		}
		next := v.Node()
		if next == nil {
			return nil, "", eris.Errorf("tree: path %q: %q does not hold a node", path, step.Key)
		}
		cur = next
	}
	return nil, "", eris.Errorf("tree: unresolved path %q", path)
}
