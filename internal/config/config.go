// Package config loads the TOML-backed run configuration consumed by
// cmd/tomasulo: the initial memory image.
package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// MemoryImage is the decoded shape of a `--mem` TOML file: a flat table
// of address → value entries, each checked against the 0..65535 range by
// the engine's initialize_memory.
type MemoryImage struct {
	Memory map[string]uint32 `toml:"memory"`
}

// LoadMemoryImage reads and decodes a TOML memory file at path.
func LoadMemoryImage(path string) (MemoryImage, error) {
	var img MemoryImage
	data, err := os.ReadFile(path)
	if err != nil {
		return img, errors.Wrapf(err, "reading memory file %s", path)
	}
	if _, err := toml.Decode(string(data), &img); err != nil {
		return img, errors.Wrapf(err, "parsing memory file %s", path)
	}
	return img, nil
}

// Addresses converts the string-keyed TOML table into the address-keyed
// map the engine's InitializeMemory expects.
func (m MemoryImage) Addresses() (map[uint32]uint32, error) {
	out := make(map[uint32]uint32, len(m.Memory))
	for k, v := range m.Memory {
		addr, err := strconv.ParseUint(k, 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "memory address %q is not a non-negative integer", k)
		}
		out[uint32(addr)] = v
	}
	return out, nil
}
