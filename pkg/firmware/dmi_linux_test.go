//go:build linux

package firmware

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadIdentification(t *testing.T) {
	t.Run("FullSet", func(t *testing.T) {
		dir := t.TempDir()
		fields := map[string]string{
			"sys_vendor":      "LENOVO\n",
			"product_name":    "Legion 9i 16IRX9\n",
			"product_version": "Legion 9i\n",
			"board_name":      "LNVNB161216\n",
		}
		for name, content := range fields {
			if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
		}

		id := ReadIdentification(dir)
		if id.Vendor != "LENOVO" {
			t.Errorf("Vendor = %q", id.Vendor)
		}
		if id.ProductName != "Legion 9i 16IRX9" {
			t.Errorf("ProductName = %q", id.ProductName)
		}
		if id.ProductVersion != "Legion 9i" {
			t.Errorf("ProductVersion = %q", id.ProductVersion)
		}
		if id.BoardName != "LNVNB161216" {
			t.Errorf("BoardName = %q", id.BoardName)
		}
		if id.Empty() {
			t.Error("identification should not be empty")
		}
	})

	t.Run("MissingEntries", func(t *testing.T) {
		id := ReadIdentification(t.TempDir())
		if !id.Empty() {
			t.Errorf("identification from empty dir should be empty, got %+v", id)
		}
	})
}
