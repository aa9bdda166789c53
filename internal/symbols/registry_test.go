// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package symbols

import (
	"testing"

	"github.com/petar-djukic/go-scoper/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestRegistry(t *testing.T) *Registry {
	t.Helper()
	file := &types.File{PackageName: "foo/bar", RelativePath: "foo/bar/src/Baz.php"}

	r := NewRegistry()
	for _, sym := range []*Symbol{
		New(types.Namespace, `Foo\Bar`, file),
		New(types.Class, `Foo\Bar\Baz`, file),
		New(types.Class, `Global_Thing`, file),
		New(types.Interface, `Foo\Bar\Contract`, file),
		New(types.Trait, `Foo\Bar\Helpers`, file),
		New(types.Function, `Foo\Bar\helper`, file),
		New(types.Constant, `FOO_VERSION`, file),
	} {
		_, err := r.Add(sym)
		require.NoError(t, err)
	}
	return r
}

func TestNewRegistry_HasRootSentinel(t *testing.T) {
	r := NewRegistry()

	root := r.Namespace(types.RootNamespace)
	require.NotNil(t, root)
	assert.Same(t, r.Root(), root)
	assert.Empty(t, r.Namespaces(), "sentinel is not listed as a discovered namespace")
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_Add_FirstEntryWins(t *testing.T) {
	r := NewRegistry()
	first := &types.File{RelativePath: "a.php"}
	second := &types.File{RelativePath: "b.php"}

	a, err := r.Add(New(types.Class, `Foo\Baz`, first))
	require.NoError(t, err)
	b, err := r.Add(New(types.Class, `Foo\Baz`, second))
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Len(t, r.Classes(), 1)
	assert.Equal(t, []*types.File{first, second}, a.SourceFiles())
}

func TestRegistry_Add_UnknownKindPanics(t *testing.T) {
	r := NewRegistry()
	assert.Panics(t, func() {
		_, _ = r.Add(New(types.SymbolKind(42), "Nope", nil))
	})
}

func TestRegistry_Views(t *testing.T) {
	r := buildTestRegistry(t)

	assert.Equal(t, 7, r.Len())
	assert.Len(t, r.Namespaces(), 1)
	assert.Len(t, r.Classes(), 2)
	assert.Len(t, r.Interfaces(), 1)
	assert.Len(t, r.Traits(), 1)
	assert.Len(t, r.Functions(), 1)
	assert.Len(t, r.Constants(), 1)

	global := r.GlobalClasses()
	require.Len(t, global, 1)
	assert.Equal(t, "Global_Thing", global[0].OriginalName())

	var classmap []string
	for _, s := range r.Classmap() {
		classmap = append(classmap, s.OriginalName())
	}
	assert.Equal(t, []string{`Foo\Bar\Baz`, "Global_Thing", `Foo\Bar\Contract`, `Foo\Bar\Helpers`}, classmap)

	ns := r.Namespace(`Foo\Bar`)
	require.NotNil(t, ns)
	assert.Equal(t, types.Namespace, ns.Kind())
	assert.Nil(t, r.Namespace(`Foo`), "lookup is exact")
}

func TestRegistry_Rename(t *testing.T) {
	r := buildTestRegistry(t)
	ns := r.Namespace(`Foo\Bar`)

	require.NoError(t, r.Rename(ns, `Prefix\Foo\Bar`))
	assert.True(t, ns.IsRenamed())
	assert.Equal(t, `Prefix\Foo\Bar`, ns.ReplacementName())
	assert.Equal(t, `Foo\Bar`, ns.OriginalName())

	// Same value again is a no-op.
	require.NoError(t, r.Rename(ns, `Prefix\Foo\Bar`))

	err := r.Rename(ns, `Other\Foo\Bar`)
	assert.ErrorIs(t, err, ErrReplacementAlreadySet)
	assert.Equal(t, `Prefix\Foo\Bar`, ns.ReplacementName())

	changed := r.Changed(types.Namespace)
	require.Len(t, changed, 1)
	assert.Same(t, ns, changed[0])
	assert.Empty(t, r.Changed(types.Class))
}

func TestRegistry_RenameRootFails(t *testing.T) {
	r := NewRegistry()
	assert.ErrorIs(t, r.Rename(r.Root(), `Prefix`), ErrRootNamespace)
}

func TestRegistry_Seal(t *testing.T) {
	r := buildTestRegistry(t)
	cls := r.Lookup(types.Class, "Global_Thing")
	require.NotNil(t, cls)

	r.Seal()
	assert.True(t, r.Sealed())

	_, err := r.Add(New(types.Class, "Late", nil))
	assert.ErrorIs(t, err, ErrRegistrySealed)

	err = r.Rename(cls, "Prefix_Global_Thing")
	assert.ErrorIs(t, err, ErrRegistrySealed)
	assert.False(t, cls.IsRenamed())
}

func TestSymbol_Names(t *testing.T) {
	tests := []struct {
		name      string
		kind      types.SymbolKind
		fqn       string
		wantNS    string
		wantLocal string
		wantGlob  bool
	}{
		{"namespaced class", types.Class, `Foo\Bar\Baz`, `Foo\Bar`, "Baz", false},
		{"global class", types.Class, "Baz", types.RootNamespace, "Baz", true},
		{"global function", types.Function, "foo", types.RootNamespace, "foo", true},
		{"namespace", types.Namespace, `Foo\Bar`, `Foo\Bar`, `Foo\Bar`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.kind, tt.fqn, nil)
			assert.Equal(t, tt.wantNS, s.Namespace())
			assert.Equal(t, tt.wantLocal, s.LocalName())
			assert.Equal(t, tt.wantGlob, s.IsGlobal())
			assert.Equal(t, tt.fqn, s.ReplacementName())
			assert.False(t, s.IsRenamed())
		})
	}
}
