package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsYearFolder(t *testing.T) {
	if _, ok := IsYearFolder("Photos from 2023"); !ok {
		t.Fatalf("expected 2023 to be a year folder")
	}
	if _, ok := IsYearFolder("Photos from 1899"); ok {
		t.Fatalf("1899 must be rejected (below 1900 bound)")
	}
	if _, ok := IsYearFolder("Photos from 2200"); ok {
		t.Fatalf("2200 must be rejected (above current+1 bound)")
	}
	if _, ok := IsYearFolder("Vacation"); ok {
		t.Fatalf("non-year folder must not match")
	}
	if y, ok := IsYearFolder("Photos from 2023  "); !ok || y != 2023 {
		t.Fatalf("trailing whitespace must be right-trimmed before matching")
	}
}

func TestNormalizeForWrite(t *testing.T) {
	in := filepath.Join("Takeout", "Fotos de ", "img.jpg")
	out := NormalizeForWrite(in)
	assert.Equal(t, filepath.Join("Takeout", "Fotos de", "img.jpg"), out)
}

func TestSanitizeFilename(t *testing.T) {
	out, err := SanitizeFilename(`a<b>c:d"e|f?g*h`, false)
	require.NoError(t, err)
	assert.Equal(t, "a_b_c_d_e_f_g_h", out)

	out, err = SanitizeFilename("CON.jpg", true)
	require.NoError(t, err)
	assert.Equal(t, "CON_file.jpg", out)

	out, err = SanitizeFilename("\x01\x02", false)
	require.NoError(t, err)
	assert.Equal(t, "__", out)

	_, err = SanitizeFilename("", false)
	require.Error(t, err)
}

func TestUniqueName(t *testing.T) {
	taken := map[string]bool{"img.jpg": true, "img (1).jpg": true}
	got := UniqueName("img.jpg", func(p string) bool { return taken[p] })
	assert.Equal(t, "img (2).jpg", got)
}

func TestRepairMojibakeYenSign(t *testing.T) {
	got := RepairMojibake("Cuba¥ol")
	assert.Contains(t, []string{"Cubañol", "Cubañol", "CubaÑol"}, got)
}

func TestResolveTakeoutRootShapeB(t *testing.T) {
	dir := t.TempDir()
	takeout := filepath.Join(dir, "Takeout")
	gp := filepath.Join(takeout, "Google Photos")
	require.NoError(t, os.MkdirAll(filepath.Join(gp, "Photos from 2023"), 0o755))

	root, err := ResolveTakeoutRoot(takeout)
	require.NoError(t, err)
	assert.Equal(t, gp, root)
}

func TestResolveTakeoutRootShapeA(t *testing.T) {
	dir := t.TempDir()
	gp := filepath.Join(dir, "Takeout", "Fotos de Google")
	require.NoError(t, os.MkdirAll(filepath.Join(gp, "Photos from 2023"), 0o755))

	root, err := ResolveTakeoutRoot(dir)
	require.NoError(t, err)
	assert.Equal(t, gp, root)
}
