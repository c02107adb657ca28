package release

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestBuildCode_Cases checks concrete tag-to-code derivations.
func TestBuildCode_Cases(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"1.2.3":      "123",
		"2.0.0-beta": "200-beta",
		"v10":        "v10",
		"":           "",
		"...":        "",
	}
	for tag, want := range cases {
		require.Equal(t, want, BuildCode(tag))
	}
}

// TestBuildCode_Properties verifies the transform laws:
// no dots survive, length shrinks by the dot count, dotless input passes
// through untouched, and the transform is idempotent.
func TestBuildCode_Properties(t *testing.T) {
	t.Parallel()

	tags := []string{
		"1.2.3",
		"2.0.0-beta",
		"v10",
		"10.0.0.0.1",
		"release.candidate.7",
		"no-dots-here",
		".leading",
		"trailing.",
	}
	for _, tag := range tags {
		code := BuildCode(tag)

		require.NotContains(t, code, ".")
		require.Len(t, code, len(tag)-strings.Count(tag, "."))
		require.Equal(t, code, BuildCode(code))

		if !strings.Contains(tag, ".") {
			require.Equal(t, tag, code)
		}
	}
}

// TestRecord_Render ensures the artifact is exactly two key=value lines,
// each with a trailing newline.
func TestRecord_Render(t *testing.T) {
	t.Parallel()

	record := NewRecord("1.2.3")
	require.Equal(t, "versionName=1.2.3\nversionCode=123\n", record.Render())

	// Degenerate input still renders a well-formed artifact.
	record = NewRecord("")
	require.Equal(t, "versionName=\nversionCode=\n", record.Render())
}

// TestParse_Roundtrip ensures Render output parses back to an equal record.
func TestParse_Roundtrip(t *testing.T) {
	t.Parallel()

	want := NewRecord("2.0.0-beta")

	got, err := Parse([]byte(want.Render()))
	require.NoError(t, err)
	require.Equal(t, want, got)
}

// TestParse_Malformed rejects artifacts that are not two labelled lines.
func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	for _, contents := range []string{
		"",
		"versionName=1.2.3\n",
		"versionCode=123\nversionName=1.2.3\n",
		"versionName=1.2.3\nversionCode=123\nextra=1\n",
	} {
		_, err := Parse([]byte(contents))
		require.Error(t, err)
	}
}

// TestRecord_Clone verifies the copy is detached from the original.
func TestRecord_Clone(t *testing.T) {
	t.Parallel()

	original := NewRecord("1.2.3")
	cloned := original.Clone()

	require.Equal(t, original, cloned)
	require.NotSame(t, original, cloned)

	var nilRecord *Record

	require.Nil(t, nilRecord.Clone())
}
