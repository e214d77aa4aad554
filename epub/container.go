package epub

import "encoding/xml"

// OCF container and package-document structures, marshalled with
// encoding/xml when the book is assembled.

type ocfContainer struct {
	XMLName   xml.Name      `xml:"container"`
	Version   string        `xml:"version,attr"`
	Xmlns     string        `xml:"xmlns,attr"`
	RootFiles []ocfRootFile `xml:"rootfiles>rootfile"`
}

type ocfRootFile struct {
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr"`
}

func newContainer(opfPath string) ocfContainer {
	return ocfContainer{
		Version: "1.0",
		Xmlns:   "urn:oasis:names:tc:opendocument:xmlns:container",
		RootFiles: []ocfRootFile{
			{FullPath: opfPath, MediaType: "application/oebps-package+xml"},
		},
	}
}

type packageDoc struct {
	XMLName  xml.Name `xml:"package"`
	Xmlns    string   `xml:"xmlns,attr"`
	Version  string   `xml:"version,attr"`
	UniqueID string   `xml:"unique-identifier,attr"`

	Metadata packageMetadata `xml:"metadata"`
	Manifest packageManifest `xml:"manifest"`
	Spine    packageSpine    `xml:"spine"`
}

type packageMetadata struct {
	XmlnsDC    string       `xml:"xmlns:dc,attr"`
	Identifier dcIdentifier `xml:"dc:identifier"`
	Title      string       `xml:"dc:title"`
	Creator    string       `xml:"dc:creator"`
	Language   string       `xml:"dc:language"`
	Source     string       `xml:"dc:source,omitempty"`
	Date       string       `xml:"dc:date,omitempty"`
	Metas      []metaTag    `xml:"meta"`
}

type dcIdentifier struct {
	ID    string `xml:"id,attr"`
	Value string `xml:",chardata"`
}

type metaTag struct {
	Property string `xml:"property,attr"`
	Value    string `xml:",chardata"`
}

type packageManifest struct {
	Items []manifestItem `xml:"item"`
}

type manifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr,omitempty"`
}

type packageSpine struct {
	ItemRefs []spineItemRef `xml:"itemref"`
}

type spineItemRef struct {
	IDRef string `xml:"idref,attr"`
}

func marshalXML(v any) ([]byte, error) {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
