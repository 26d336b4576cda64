package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTargets(t *testing.T) {
	targets := DefaultTargets()
	require.Len(t, targets, 2)
	assert.Equal(t, "sample_surface", targets[0].Name)
	assert.Equal(t, []string{"apps/sample_surface.cpp", "libs/read_stl.cpp"}, targets[0].Sources)
	assert.Equal(t, "bvh", targets[1].Name)
	assert.Equal(t, []string{"apps/bvh.cpp", "libs/read_stl.cpp"}, targets[1].Sources)

	// callers get their own copy
	targets[0].Sources[0] = "changed.cpp"
	assert.Equal(t, "apps/sample_surface.cpp", DefaultTargets()[0].Sources[0])
}

func TestFindTarget(t *testing.T) {
	got, ok := FindTarget(DefaultTargets(), "bvh")
	require.True(t, ok)
	assert.Equal(t, "bvh", got.Name)

	_, ok = FindTarget(DefaultTargets(), "BVH")
	assert.False(t, ok)
}

func TestSelectTargets(t *testing.T) {
	all := DefaultTargets()

	tests := []struct {
		name     string
		patterns []string
		want     []string
		wantErr  error
	}{
		{"no patterns selects all", nil, []string{"sample_surface", "bvh"}, nil},
		{"exact name", []string{"bvh"}, []string{"bvh"}, nil},
		{"glob", []string{"sample_*"}, []string{"sample_surface"}, nil},
		{"keeps declaration order", []string{"bvh", "sample_surface"}, []string{"sample_surface", "bvh"}, nil},
		{"alternatives", []string{"{bvh,nope}"}, []string{"bvh"}, nil},
		{"nothing matches", []string{"missing"}, nil, ErrNoTargets},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectTargets(all, tt.patterns)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			names := make([]string, len(got))
			for i, tg := range got {
				names[i] = tg.Name
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestSelectTargets_InvalidPattern(t *testing.T) {
	_, err := SelectTargets(DefaultTargets(), []string{"[bvh"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid target pattern")
}

func TestInvocation(t *testing.T) {
	inv := Invocation{"c++", "-g", "a b.cpp", `q"uote.cpp`, ""}
	assert.Equal(t, "c++", inv.Program())
	assert.Equal(t, []string{"-g", "a b.cpp", `q"uote.cpp`, ""}, inv.Args())
	assert.Equal(t, `c++ -g 'a b.cpp' 'q"uote.cpp' ''`, inv.String())

	var empty Invocation
	assert.Equal(t, "", empty.Program())
	assert.Nil(t, empty.Args())
}
