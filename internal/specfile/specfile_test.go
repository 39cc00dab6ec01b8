package specfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/local/pagesel/internal/selection"
)

var engine = selection.New(selection.DefaultOptions())

func setup(t *testing.T) (string, *Expander) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"pages.txt":    "# chapters\n1-3\n\n10,12\nlast 2\n",
		"mixed.txt":    "5\nbogus spec\n99\ncontains:'Summary' to 20\n",
		"invalid.txt":  "# nothing usable\nnope\n0\n",
		"sub/deep.txt": "7\n",
	}
	for name, body := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir, New(dir)
}

func TestExpand(t *testing.T) {
	_, x := setup(t)
	tests := []struct {
		in, want string
	}{
		{"1-5", "1-5"},
		{"file:pages.txt", "1-3,10,12,last 2"},
		{"20, FILE: pages.txt ,30", "20,1-3,10,12,last 2,30"},
		{"file:mixed.txt", "5,contains:'Summary' to 20"},
		{"file:sub/deep.txt, contains:'file:x'", "7,contains:'file:x'"},
		{"'file:sub/deep.txt, 8'", "7,8"},
	}
	for _, tt := range tests {
		got, err := x.Expand(engine, tt.in, 50)
		if err != nil {
			t.Errorf("%q: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExpand_Errors(t *testing.T) {
	dir, x := setup(t)
	for _, in := range []string{
		"file:",
		"file:missing.txt",
		"file:invalid.txt",
		"file:../escape.txt",
		"file:" + filepath.Join(filepath.Dir(dir), "elsewhere.txt"),
	} {
		_, err := x.Expand(engine, in, 50)
		var fe *Error
		if !errors.As(err, &fe) {
			t.Errorf("%q: expected *Error, got %v", in, err)
		}
	}
}

func TestExpand_CachesFiles(t *testing.T) {
	dir, x := setup(t)
	if _, err := x.Expand(engine, "file:sub/deep.txt", 10); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "deep.txt"), []byte("9\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := x.Expand(engine, "file:sub/deep.txt", 10)
	if err != nil {
		t.Fatal(err)
	}
	if got != "7" {
		t.Errorf("file re-read: got %q", got)
	}
}

func TestExpand_ValidatesAgainstPageCount(t *testing.T) {
	_, x := setup(t)
	// 10 and 12 do not exist in an 8-page document
	got, err := x.Expand(engine, "file:pages.txt", 8)
	if err != nil {
		t.Fatal(err)
	}
	if got != "1-3,last 2" {
		t.Errorf("got %q", got)
	}
}
