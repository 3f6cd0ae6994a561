package injector

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
)

// ResolveModulePath returns dir/name if that file exists.
func ResolveModulePath(dir string, name string) (string, error) {
	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrModuleNotFound, path)
	}
	return path, nil
}

// FindExportRVA reads the export table of the PE file at path and returns the
// RVA of symbolName.
func FindExportRVA(path string, symbolName string) (uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	peFile, err := pe.NewFile(f)
	if err != nil {
		return 0, err
	}
	defer peFile.Close()

	var exportDir pe.DataDirectory
	switch oh := peFile.OptionalHeader.(type) {
	case *pe.OptionalHeader64:
		if oh.NumberOfRvaAndSizes > pe.IMAGE_DIRECTORY_ENTRY_EXPORT {
			exportDir = oh.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_EXPORT]
		}
	case *pe.OptionalHeader32:
		if oh.NumberOfRvaAndSizes > pe.IMAGE_DIRECTORY_ENTRY_EXPORT {
			exportDir = oh.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_EXPORT]
		}
	}
	if exportDir.VirtualAddress == 0 {
		return 0, fmt.Errorf("no export directory found")
	}

	var exportTable *pe.Section
	for _, section := range peFile.Sections {
		if exportDir.VirtualAddress >= section.VirtualAddress &&
			exportDir.VirtualAddress < section.VirtualAddress+section.Size {
			exportTable = section
			break
		}
	}
	if exportTable == nil {
		return 0, fmt.Errorf("could not find export section")
	}

	exportData, err := exportTable.Data()
	if err != nil {
		return 0, fmt.Errorf("could not read export data: %w", err)
	}

	// at converts an RVA inside the export section to a slice of exportData
	at := func(rva uint32, size uint32) ([]byte, error) {
		if rva < exportTable.VirtualAddress {
			return nil, fmt.Errorf("rva 0x%x outside export section", rva)
		}
		off := rva - exportTable.VirtualAddress
		if uint64(off)+uint64(size) > uint64(len(exportData)) {
			return nil, fmt.Errorf("rva 0x%x outside export section", rva)
		}
		return exportData[off:], nil
	}

	exportDirectory := struct {
		Characteristics       uint32
		TimeDateStamp         uint32
		MajorVersion          uint16
		MinorVersion          uint16
		Name                  uint32
		Base                  uint32
		NumberOfFunctions     uint32
		NumberOfNames         uint32
		AddressOfFunctions    uint32
		AddressOfNames        uint32
		AddressOfNameOrdinals uint32
	}{}

	raw, err := at(exportDir.VirtualAddress, uint32(binary.Size(exportDirectory)))
	if err != nil {
		return 0, err
	}
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &exportDirectory); err != nil {
		return 0, fmt.Errorf("could not read export directory: %w", err)
	}

	for i := uint32(0); i < exportDirectory.NumberOfNames; i++ {
		raw, err := at(exportDirectory.AddressOfNames+i*4, 4)
		if err != nil {
			return 0, fmt.Errorf("could not read name RVA: %w", err)
		}
		nameData, err := at(binary.LittleEndian.Uint32(raw), 1)
		if err != nil {
			return 0, fmt.Errorf("could not read export name: %w", err)
		}
		end := bytes.IndexByte(nameData, 0)
		if end < 0 || string(nameData[:end]) != symbolName {
			continue
		}

		raw, err = at(exportDirectory.AddressOfNameOrdinals+i*2, 2)
		if err != nil {
			return 0, fmt.Errorf("could not read ordinal: %w", err)
		}
		ordinal := uint32(binary.LittleEndian.Uint16(raw))

		raw, err = at(exportDirectory.AddressOfFunctions+ordinal*4, 4)
		if err != nil {
			return 0, fmt.Errorf("could not read function address: %w", err)
		}
		return binary.LittleEndian.Uint32(raw), nil
	}

	return 0, fmt.Errorf("symbol %s not found in export table", symbolName)
}
