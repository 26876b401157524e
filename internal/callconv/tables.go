package callconv

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// tablesFile is the on-disk shape of a convention table file:
//
//	[[convention]]
//	name = "x86_64/custom"
//	targets = ["x86-64"]
//	formats = ["elf"]
//	param_regs = ["rdi", "rsi"]
//	ret_regs = ["rax"]
//	ret_addr_bytes = 8
type tablesFile struct {
	Convention []Table `toml:"convention"`
}

// LoadTables reads convention tables from a TOML file, so additional ABIs
// can be registered without recompiling.
func LoadTables(path string) ([]Convention, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("callconv: read tables: %w", err)
	}
	return ParseTables(data)
}

// ParseTables decodes convention tables from TOML bytes.
func ParseTables(data []byte) ([]Convention, error) {
	var tf tablesFile
	if err := toml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("callconv: parse tables: %w", err)
	}
	convs := make([]Convention, 0, len(tf.Convention))
	for _, tab := range tf.Convention {
		c, err := NewConvention(tab)
		if err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, nil
}
