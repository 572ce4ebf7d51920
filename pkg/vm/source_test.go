package vm

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	payload := buildClassImage(imageSpec{name: "com/example/Foo", super: "java/lang/Object"})
	if err := os.MkdirAll(filepath.Join(dir, "com", "example"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "com", "example", "Foo.class"), payload, 0o644); err != nil {
		t.Fatal(err)
	}

	source := &DirSource{Root: dir}
	got, err := source.ClassBytes("com/example/Foo")
	if err != nil {
		t.Fatalf("ClassBytes: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("bytes differ")
	}

	_, err = source.ClassBytes("com/example/Missing")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
}

func writeJmod(t *testing.T, classes map[string][]byte) string {
	t.Helper()
	var zbuf bytes.Buffer
	zw := zip.NewWriter(&zbuf)
	for name, data := range classes {
		w, err := zw.Create("classes/" + name + ".class")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "java.base.jmod")
	out := append([]byte{'J', 'M', 0x01, 0x00}, zbuf.Bytes()...)
	if err := os.WriteFile(path, out, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestJmodSource(t *testing.T) {
	payload := buildClassImage(objectSpec())
	path := writeJmod(t, map[string][]byte{"java/lang/Object": payload})

	source := &JmodSource{Path: path}
	got, err := source.ClassBytes("java/lang/Object")
	if err != nil {
		t.Fatalf("ClassBytes: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("bytes differ")
	}

	_, err = source.ClassBytes("java/lang/Missing")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
}

func TestJmodSourceBadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jmod")
	if err := os.WriteFile(path, []byte("PK\x03\x04nonsense"), 0o644); err != nil {
		t.Fatal(err)
	}
	source := &JmodSource{Path: path}
	if _, err := source.ClassBytes("java/lang/Object"); err == nil {
		t.Fatal("ClassBytes succeeded on a file without the JM header")
	}
}

func TestMultiSourceOrder(t *testing.T) {
	first := newMapSource(imageSpec{name: "A", super: "java/lang/Object"})
	second := newMapSource(
		imageSpec{name: "A"}, // shadowed by first
		imageSpec{name: "B", super: "java/lang/Object"},
	)
	multi := MultiSource{first, second}

	got, err := multi.ClassBytes("A")
	if err != nil {
		t.Fatalf("ClassBytes(A): %v", err)
	}
	if !bytes.Equal(got, first.classes["A"]) {
		t.Error("MultiSource did not prefer the first source")
	}

	if _, err := multi.ClassBytes("B"); err != nil {
		t.Fatalf("ClassBytes(B): %v", err)
	}

	_, err = multi.ClassBytes("C")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("ClassBytes(C): got %v, want NotFoundError", err)
	}
}

// resolving through a jmod exercises the whole path: zip payload, parse, link
func TestLoaderOverJmod(t *testing.T) {
	path := writeJmod(t, map[string][]byte{
		"java/lang/Object": buildClassImage(objectSpec()),
		"java/lang/String": buildClassImage(imageSpec{name: "java/lang/String", super: "java/lang/Object"}),
	})
	loader := NewClassLoader(&JmodSource{Path: path}, nil)

	c, err := loader.Resolve(ScalarHandle("java/lang/String"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if c.Super == nil || c.Super.Name() != "java/lang/Object" {
		t.Errorf("super: %v", c.Super)
	}
}
