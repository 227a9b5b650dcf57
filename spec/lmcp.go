package spec

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/viant/semcheck/semtype"
)

type mdmDoc struct {
	XMLName    xml.Name `xml:"MDM"`
	StructList struct {
		Structs []mdmStruct `xml:"Struct"`
	} `xml:"StructList"`
}

type mdmStruct struct {
	Name   string     `xml:"Name,attr"`
	Fields []mdmField `xml:"Field"`
}

type mdmField struct {
	Name  string `xml:"Name,attr"`
	Units string `xml:"Units,attr"`
}

func lmcpAccessorName(structure, field, prefix string) string {
	capped := strings.ToUpper(field[:1]) + field[1:]
	return "afrl::cmasi::" + structure + "::" + prefix + capped
}

// LoadLMCP parses an LMCP MDM document and registers the qualified getter
// and setter names of every unit-bearing field as prior entries. Values
// flowing through those accessors carry the field's unit and dimension.
func (x *Index) LoadLMCP(data []byte) error {
	var doc mdmDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse LMCP spec: %w", err)
	}
	for _, structure := range doc.StructList.Structs {
		if structure.Name == "" {
			continue
		}
		for _, field := range structure.Fields {
			if field.Units == "" || field.Name == "" {
				continue
			}
			unit := x.Units.Intern(field.Units)
			ti := semtype.New()
			ti.Frames[semtype.FrameGlobal] = true
			ti.Units[unit] = true
			if dim, ok := semtype.StringToDimension(field.Units); ok {
				ti.Dim = &dim
			}
			x.Prior[lmcpAccessorName(structure.Name, field.Name, "get")] = ti.Clone()
			x.Prior[lmcpAccessorName(structure.Name, field.Name, "set")] = ti
		}
	}
	return nil
}
