package enrich

import (
	"strings"
)

// GroupKey identifies a partition of rows in grouped mode: the row's
// partition-column value and its stage-2 answer.
type GroupKey struct {
	Partition string
	Stage2    string
}

func (k GroupKey) String() string {
	return k.Partition + " / " + k.Stage2
}

// Group is a partition of rows sharing a GroupKey. Rows are in table order.
type Group struct {
	Key  GroupKey
	Rows []int
}

// Partition groups rows by (partition value, stage-2 answer), in order of
// first appearance. A row joins no group when its partition value is absent
// or its stage-2 result is not a successful answer.
func Partition(partitions []string, stage2 []Result) []Group {
	var groups []Group
	index := make(map[GroupKey]int)
	for row := range partitions {
		pv := NewSubject(partitions[row])
		if !pv.Present() || !stage2[row].OK() {
			continue
		}
		key := GroupKey{Partition: pv.Text(), Stage2: stage2[row].Text}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key})
		}
		groups[i].Rows = append(groups[i].Rows, row)
	}
	return groups
}

// GroupSubject joins the successful stage-1 answers of the group's rows in
// row order. Failed answers are left out.
func GroupSubject(g Group, stage1 []Result, sep string) Subject {
	parts := make([]string, 0, len(g.Rows))
	for _, row := range g.Rows {
		if stage1[row].OK() {
			parts = append(parts, stage1[row].Text)
		}
	}
	return NewSubject(strings.Join(parts, sep))
}
