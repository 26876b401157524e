// Package exeinfo derives the two identity strings a calling convention
// matches against — architecture family and executable container format —
// from a real binary.
package exeinfo

import (
	"debug/elf"
	"debug/pe"
	"errors"
	"fmt"
	"os"
)

var (
	ErrUnknownFormat  = errors.New("exeinfo: unrecognized executable format")
	ErrUnknownMachine = errors.New("exeinfo: unrecognized machine")
)

// Info identifies an executable for convention selection.
type Info struct {
	Target string // architecture family, e.g. "x86-64"
	Format string // container format, e.g. "elf64"
}

// Identify opens the file at path and classifies it.
func Identify(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("exeinfo: open: %w", err)
	}
	defer f.Close()

	if ef, err := elf.NewFile(f); err == nil {
		defer ef.Close()
		return identifyELF(ef)
	}
	if pf, err := pe.NewFile(f); err == nil {
		defer pf.Close()
		return identifyPE(pf)
	}
	return Info{}, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

func identifyELF(f *elf.File) (Info, error) {
	target, err := elfMachine(f.Machine)
	if err != nil {
		return Info{}, err
	}
	format := "elf64"
	if f.Class == elf.ELFCLASS32 {
		format = "elf32"
	}
	return Info{Target: target, Format: format}, nil
}

func elfMachine(m elf.Machine) (string, error) {
	switch m {
	case elf.EM_X86_64:
		return "x86-64", nil
	case elf.EM_386:
		return "x86", nil
	case elf.EM_AARCH64:
		return "aarch64", nil
	case elf.EM_ARM:
		return "arm", nil
	case elf.EM_RISCV:
		return "riscv", nil
	default:
		return "", fmt.Errorf("%w: ELF machine %v", ErrUnknownMachine, m)
	}
}

func identifyPE(f *pe.File) (Info, error) {
	target, err := peMachine(f.Machine)
	if err != nil {
		return Info{}, err
	}
	format := "pe32"
	if _, ok := f.OptionalHeader.(*pe.OptionalHeader64); ok {
		format = "pe32+"
	}
	return Info{Target: target, Format: format}, nil
}

func peMachine(m uint16) (string, error) {
	switch m {
	case pe.IMAGE_FILE_MACHINE_AMD64:
		return "x86-64", nil
	case pe.IMAGE_FILE_MACHINE_I386:
		return "x86", nil
	case pe.IMAGE_FILE_MACHINE_ARM64:
		return "aarch64", nil
	default:
		return "", fmt.Errorf("%w: PE machine %#x", ErrUnknownMachine, m)
	}
}
