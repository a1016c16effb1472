package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_Defaults(t *testing.T) {
	opts := NewOptions()
	assert.Equal(t, DefaultMaxDepth, opts.MaxDepth())
	assert.Equal(t, DefaultIndent, opts.Indent())
	assert.False(t, opts.Frozen())
	assert.Nil(t, opts.MetadataSource())
}

func TestOptions_FreezeOnFirstUse(t *testing.T) {
	opts := NewOptions()
	require.NoError(t, opts.SetMaxDepth(10))

	_, err := Serialize("x", StringMeta, opts)
	require.NoError(t, err)
	assert.True(t, opts.Frozen())

	err = opts.SetMaxDepth(20)
	var roe *ReadOnlyConfigurationError
	require.ErrorAs(t, err, &roe)
	assert.Equal(t, "max depth", roe.Setting)
	assert.Equal(t, 10, opts.MaxDepth(), "failed set must not mutate")
}

func TestOptions_FrozenSetters(t *testing.T) {
	opts := NewOptions()
	opts.freezeForUse()

	var roe *ReadOnlyConfigurationError
	tests := []struct {
		name string
		err  error
	}{
		{"max depth", opts.SetMaxDepth(5)},
		{"indent", opts.SetIndent(4)},
		{"indent sequence items", opts.SetIndentSequenceItems(false)},
		{"prefer flow style", opts.SetPreferFlowStyle(true)},
		{"default scalar style", opts.SetDefaultScalarStyle(StyleLiteral)},
		{"empty collection handling", opts.SetEmptyCollectionHandling(PreferEmptyCollection)},
		{"naming policy", opts.SetNamingPolicy(NamingSnake)},
		{"reference handling", opts.SetReferenceHandling(ReferencesPreserve)},
		{"ignore null", opts.SetIgnoreNull(true)},
		{"ignore empty objects", opts.SetIgnoreEmptyObjects(true)},
		{"ignore read-only properties", opts.SetIgnoreReadOnlyProperties(true)},
		{"include fields", opts.SetIncludeFields(true)},
		{"allow trailing commas", opts.SetAllowTrailingCommas(true)},
		{"read comments", opts.SetReadComments(true)},
		{"write comments", opts.SetWriteComments(true)},
		{"metadata source", opts.SetMetadataSource(NewRegistry(OrderDeclaration))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorAs(t, tt.err, &roe)
			assert.Equal(t, tt.name, roe.Setting)
		})
	}
}

func TestOptions_Validation(t *testing.T) {
	var ice *InvalidConfigurationError
	tests := []struct {
		name string
		err  error
	}{
		{"depth zero", NewOptions().SetMaxDepth(0)},
		{"depth negative", NewOptions().SetMaxDepth(-1)},
		{"depth above hard limit", NewOptions().SetMaxDepth(MaxDepthLimit + 1)},
		{"indent too narrow", NewOptions().SetIndent(1)},
		{"indent too wide", NewOptions().SetIndent(9)},
		{"unknown scalar style", NewOptions().SetDefaultScalarStyle(ScalarStyle(99))},
		{"unknown empty handling", NewOptions().SetEmptyCollectionHandling(EmptyCollectionHandling(99))},
		{"unknown naming policy", NewOptions().SetNamingPolicy(NamingPolicy(99))},
		{"unknown reference handling", NewOptions().SetReferenceHandling(ReferenceHandling(99))},
		{"nil schema", NewOptions().SetSchema(nil)},
		{"nil metadata source", NewOptions().SetMetadataSource(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorAs(t, tt.err, &ice)
		})
	}

	opts := NewOptions()
	require.NoError(t, opts.SetMaxDepth(MaxDepthLimit))
	require.NoError(t, opts.SetMaxDepth(1))
	require.NoError(t, opts.SetIndent(8))
}

func TestOptions_ValidationBeforeFreezeCheck(t *testing.T) {
	opts := NewOptions()
	opts.freezeForUse()
	var ice *InvalidConfigurationError
	assert.ErrorAs(t, opts.SetMaxDepth(0), &ice, "range check reports before the freeze check")
}

// The process-wide default options allow the metadata source to be set
// exactly once. The test owns the singleton for the whole package run,
// so every other test passes explicit options.
func TestDefaultOptions_OneTimeMetadataSource(t *testing.T) {
	def := Default()
	require.Same(t, def, Default())

	reg := NewRegistry(OrderDeclaration)
	require.NoError(t, reg.Register(newPersonMeta()))
	require.NoError(t, def.SetMetadataSource(reg))
	assert.Same(t, reg, def.MetadataSource())

	err := def.SetMetadataSource(NewRegistry(OrderDeclaration))
	var roe *ReadOnlyConfigurationError
	require.ErrorAs(t, err, &roe)
	assert.Same(t, reg, def.MetadataSource(), "second assignment must not replace the first")

	// Nil options resolve to the default, which freezes on use.
	out, err := SerializeNamed(&testPerson{Name: "Ada"}, "person", nil)
	require.NoError(t, err)
	assert.Contains(t, string(out), "name: Ada")
	assert.True(t, def.Frozen())

	err = def.SetMetadataSource(NewRegistry(OrderDeclaration))
	require.ErrorAs(t, err, &roe)
}

func TestOptions_FrozenSafeForConcurrentUse(t *testing.T) {
	opts := NewOptions()
	meta := newPersonMeta()
	p := &testPerson{Name: "Ada", Age: 1}

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := Serialize(p, meta, opts)
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}
}
