// Package didl decodes DIDL-Lite documents, the XML format UPnP AV uses to
// describe media items.
package didl

import (
	"encoding/xml"
)

// String represents a string value
type String struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

// Type returns value type, as the local part of the element name.
func (s *String) Type() string {
	return s.XMLName.Local
}

// String returns the value as a string.
func (s *String) String() string {
	return s.Value
}

// Resource is a res element, a locator of the item content.
type Resource struct {
	ProtocolInfo string `xml:"protocolInfo,attr"`
	Duration     string `xml:"duration,attr"`
	URI          string `xml:",chardata"`
}

// Item represents an item element.
type Item struct {
	XMLName    xml.Name
	ID         string      `xml:"id,attr"`
	ParentID   string      `xml:"parentID,attr"`
	Restricted bool        `xml:"restricted,attr"`
	Resources  []*Resource `xml:"res"`
	Values     []*String   `xml:",any"`
}

// Document represents a DIDL-Lite document.
type Document struct {
	Items []Item `xml:"item"`
}

// First returns the first item of the document, or nil.
func (doc *Document) First() *Item {
	if len(doc.Items) == 0 {
		return nil
	}

	return &doc.Items[0]
}
