package record_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewbase/yelpdb/record"
)

func TestParseLiteral_Scalars(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"True", true},
		{"False", false},
		{"None", nil},
		{"2", int64(2)},
		{"-3", int64(-3)},
		{"1.5", 1.5},
		{"'average'", "average"},
		{`"average"`, "average"},
		{"u'free'", "free"},
		{`u"no"`, "no"},
		{"  True  ", true},
	}
	for _, tt := range tests {
		got, err := record.ParseLiteral(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestParseLiteral_Dict(t *testing.T) {
	got, err := record.ParseLiteral("{'garage': False, 'street': True, 'validated': None}")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"garage":    false,
		"street":    true,
		"validated": nil,
	}, got)
}

func TestParseLiteral_EmptyDict(t *testing.T) {
	got, err := record.ParseLiteral("{}")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, got)
}

func TestParseLiteral_Sequences(t *testing.T) {
	got, err := record.ParseLiteral("['a', 'b']")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, got)

	got, err = record.ParseLiteral("(1, 2)")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, got)

	// single-element tuple syntax
	got, err = record.ParseLiteral("(1,)")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1)}, got)
}

func TestParseLiteral_RejectsNonLiterals(t *testing.T) {
	// Never evaluate anything that is not a plain literal.
	bad := []string{
		"__import__('os')",
		"casual",
		"1 + 2",
		"{'a': }",
		"'unterminated",
		"",
		"True False",
	}
	for _, in := range bad {
		_, err := record.ParseLiteral(in)
		assert.Error(t, err, "input %q should not parse", in)
	}
}

func TestFormatLiteral(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{true, "True"},
		{false, "False"},
		{nil, "None"},
		{int64(3), "3"},
		{2.0, "2.0"},
		{1.5, "1.5"},
		{"free", "free"},
		{map[string]any{"a": "b"}, "{'a': 'b'}"},
		{[]any{int64(1), "x"}, "[1, 'x']"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, record.FormatLiteral(tt.in))
	}
}
