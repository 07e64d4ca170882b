package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"storyforge/internal/tester"
)

func TestOpenRejectsBadTaskNames(t *testing.T) {
	root := t.TempDir()
	for _, task := range []string{"", "  ", "../escape", "/abs"} {
		_, err := Open(root, task)
		tester.Err(t, err, task)
	}
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	st, err := Open(t.TempDir(), "demo")
	tester.NoErr(t, err)

	tester.False(t, st.Exists(MetaFile))
	tester.NoErr(t, st.WriteJSON(MetaFile, map[string]string{"title": "a <b> c"}))
	tester.True(t, st.Exists(MetaFile))

	var got map[string]string
	tester.NoErr(t, st.ReadInto(MetaFile, &got))
	tester.Eq(t, got["title"], "a <b> c")

	// HTML escaping is off so prompts embedded later read naturally.
	raw, err := st.ReadRaw(MetaFile)
	tester.NoErr(t, err)
	tester.True(t, json.Valid(raw))
	tester.Eq(t, string(raw), "{\n  \"title\": \"a <b> c\"\n}")
}

func TestWriteInvalidatesReadCache(t *testing.T) {
	st, err := Open(t.TempDir(), "demo")
	tester.NoErr(t, err)

	tester.NoErr(t, st.WriteJSON(UpdateFile, map[string]int{"v": 1}))
	_, err = st.ReadRaw(UpdateFile)
	tester.NoErr(t, err)

	tester.NoErr(t, st.WriteJSON(UpdateFile, map[string]int{"v": 2}))
	var got map[string]int
	tester.NoErr(t, st.ReadInto(UpdateFile, &got))
	tester.Eq(t, got["v"], 2)
}

func TestPathForRejectsTraversal(t *testing.T) {
	st, err := Open(t.TempDir(), "demo")
	tester.NoErr(t, err)

	tester.Err(t, st.WriteJSON("../outside.json", 1))
	tester.Err(t, st.WriteJSON("/etc/owned.json", 1))
	tester.False(t, st.Exists("../outside.json"))
}

func TestReadTextMissingFileIsEmpty(t *testing.T) {
	st, err := Open(t.TempDir(), "demo")
	tester.NoErr(t, err)

	got, err := st.ReadText(ChapterFile(1, "summary.txt"))
	tester.NoErr(t, err)
	tester.Eq(t, got, "")
}

func TestChapterDirLayout(t *testing.T) {
	st, err := Open(t.TempDir(), "demo")
	tester.NoErr(t, err)

	rel, err := st.ChapterDir(3)
	tester.NoErr(t, err)
	tester.Eq(t, rel, filepath.Join("runtime", "chapter_3"))

	info, statErr := os.Stat(filepath.Join(st.Dir(), rel))
	tester.NoErr(t, statErr)
	tester.True(t, info.IsDir())

	_, err = st.ChapterDir(0)
	tester.Err(t, err)
}

func TestUnwrapHandlesBothShapes(t *testing.T) {
	wrapped := json.RawMessage(`{"seed":1,"final_worldview":{"genre_tone":"x"}}`)
	tester.Eq(t, string(Unwrap(wrapped, "worldview")), `{"genre_tone":"x"}`)

	bare := json.RawMessage(`{"genre_tone":"x"}`)
	tester.Eq(t, string(Unwrap(bare, "worldview")), string(bare))

	// Arrays and scalars pass through untouched.
	arr := json.RawMessage(`[1,2]`)
	tester.Eq(t, string(Unwrap(arr, "worldview")), string(arr))
}
