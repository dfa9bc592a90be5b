//go:build linux

package firmware

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultDMIPath is where the kernel exposes DMI identification.
const DefaultDMIPath = "/sys/class/dmi/id"

// ReadIdentification reads the DMI identification strings from sysfs.
// Missing or unreadable entries yield empty fields, never an error; a
// machine without DMI simply produces an empty Identification.
func ReadIdentification(dir string) Identification {
	if dir == "" {
		dir = DefaultDMIPath
	}
	return Identification{
		Vendor:         readDMIField(dir, "sys_vendor"),
		ProductName:    readDMIField(dir, "product_name"),
		ProductVersion: readDMIField(dir, "product_version"),
		BoardName:      readDMIField(dir, "board_name"),
	}
}

func readDMIField(dir, name string) string {
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
