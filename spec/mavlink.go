// Package spec loads the machine-readable protocol definitions that tie
// message-struct fields to physical units and coordinate frames, plus the
// JSON prior describing variables whose semantic types are known up front.
package spec

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/viant/semcheck/semtype"
)

type mavlinkDoc struct {
	XMLName  xml.Name `xml:"mavlink"`
	Messages struct {
		Message []mavlinkMessage `xml:"message"`
	} `xml:"messages"`
}

type mavlinkMessage struct {
	Name   string         `xml:"name,attr"`
	Fields []mavlinkField `xml:"field"`
}

type mavlinkField struct {
	Name  string `xml:"name,attr"`
	Enum  string `xml:"enum,attr"`
	Units string `xml:"units,attr"`
}

// MessageTypeName derives the C struct name the generated headers use for a
// message, e.g. OBSTACLE_DISTANCE -> mavlink_obstacle_distance_t.
func MessageTypeName(msgName string) string {
	return "mavlink_" + strings.ToLower(msgName) + "_t"
}

// LoadProtocol parses a MAVLink message-set document and fills the index's
// frame-field and field-unit maps. Unit ids are interned into the index's
// unit table in document order, so the assignment is stable across runs.
func (x *Index) LoadProtocol(data []byte) error {
	var doc mavlinkDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse protocol spec: %w", err)
	}
	for _, msg := range doc.Messages.Message {
		if msg.Name == "" {
			continue
		}
		structName := MessageTypeName(msg.Name)
		for _, field := range msg.Fields {
			if field.Enum == "MAV_FRAME" {
				if field.Name == "" {
					return fmt.Errorf("message %s: frame field has no name", msg.Name)
				}
				// First frame discriminator wins, as in the wire format.
				if _, ok := x.TypeToFrameField[structName]; !ok {
					x.TypeToFrameField[structName] = field.Name
				}
			}
			if field.Units != "" {
				if field.Name == "" {
					return fmt.Errorf("message %s: field with units %q has no name", msg.Name, field.Units)
				}
				unit := x.Units.Intern(field.Units)
				fields, ok := x.TypeToFieldUnits[structName]
				if !ok {
					fields = map[string]semtype.UnitID{}
					x.TypeToFieldUnits[structName] = fields
				}
				fields[field.Name] = unit
			}
		}
	}
	return nil
}
