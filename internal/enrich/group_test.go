package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartition(t *testing.T) {
	partitions := []string{"Active", "Active", "Remission", "", "Active", "Active", " Active "}
	stage2 := []Result{
		Success("Severe"),
		Success("Mild"),
		Success("Severe"),
		Success("Severe"),
		TransientError("InternalServerError"),
		Success("Severe"),
		Success("Mild"),
	}

	groups := Partition(partitions, stage2)
	require.Len(t, groups, 3)

	assert.Equal(t, GroupKey{"Active", "Severe"}, groups[0].Key)
	assert.Equal(t, []int{0, 5}, groups[0].Rows)
	assert.Equal(t, GroupKey{"Active", "Mild"}, groups[1].Key)
	assert.Equal(t, []int{1, 6}, groups[1].Rows)
	assert.Equal(t, GroupKey{"Remission", "Severe"}, groups[2].Key)
	assert.Equal(t, []int{2}, groups[2].Rows)

	assert.Equal(t, "Active / Severe", groups[0].Key.String())
}

func TestPartition_Empty(t *testing.T) {
	assert.Empty(t, Partition(nil, nil))
	assert.Empty(t, Partition([]string{"NaN"}, []Result{Success("Severe")}))
}

func TestGroupSubject(t *testing.T) {
	stage1 := []Result{Success("Fatigue"), RateLimitExhausted(), Success("Insomnia")}
	g := Group{Key: GroupKey{"Active", "Severe"}, Rows: []int{0, 1, 2}}

	s := GroupSubject(g, stage1, "\n")
	assert.True(t, s.Present())
	assert.Equal(t, "Fatigue\nInsomnia", s.Text())

	none := GroupSubject(Group{Rows: []int{1}}, stage1, "\n")
	assert.False(t, none.Present())
}
