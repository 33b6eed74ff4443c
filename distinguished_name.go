package chainsmith

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// AttributeType identifies one of the Distinguished Name attributes this package understands.
// The set is closed: anything outside it is rejected by AttributeTypeFromKey.
type AttributeType int

const (
	AttributeTypeCountry AttributeType = iota + 1
	AttributeTypeCommonName
	AttributeTypeLocality
	AttributeTypeStateOrProvince
	AttributeTypeOrganization
	AttributeTypeOrganizationalUnit
)

var attributeTypeKeys = map[AttributeType]string{
	AttributeTypeCountry:            "C",
	AttributeTypeCommonName:         "CN",
	AttributeTypeLocality:           "L",
	AttributeTypeStateOrProvince:    "ST",
	AttributeTypeOrganization:       "O",
	AttributeTypeOrganizationalUnit: "OU",
}

var attributeTypeOIDs = map[AttributeType]asn1.ObjectIdentifier{
	AttributeTypeCountry:            {2, 5, 4, 6},
	AttributeTypeCommonName:         {2, 5, 4, 3},
	AttributeTypeLocality:           {2, 5, 4, 7},
	AttributeTypeStateOrProvince:    {2, 5, 4, 8},
	AttributeTypeOrganization:       {2, 5, 4, 10},
	AttributeTypeOrganizationalUnit: {2, 5, 4, 11},
}

// AttributeTypeFromKey maps a short subject key (e.g. "CN") to its AttributeType.
//
// Parameters:
//   - key (string): The case-sensitive short key as written in a subject string.
//
// Returns:
//   - attributeType (AttributeType): The matching attribute type.
//   - ok (bool): false if the key is not part of the supported set.
func AttributeTypeFromKey(key string) (attributeType AttributeType, ok bool) {
	switch key {
	case "C":
		attributeType = AttributeTypeCountry
	case "CN":
		attributeType = AttributeTypeCommonName
	case "L":
		attributeType = AttributeTypeLocality
	case "ST":
		attributeType = AttributeTypeStateOrProvince
	case "O":
		attributeType = AttributeTypeOrganization
	case "OU":
		attributeType = AttributeTypeOrganizationalUnit
	default:
		return
	}

	ok = true

	return
}

// String returns the short key of the attribute type, or "UNKNOWN".
func (t AttributeType) String() string {
	if key, ok := attributeTypeKeys[t]; ok {
		return key
	}

	return "UNKNOWN"
}

// OID returns the X.520 object identifier of the attribute type.
func (t AttributeType) OID() asn1.ObjectIdentifier {
	return attributeTypeOIDs[t]
}

// ValueEncoding is the ASN.1 string type an attribute value is held in.
type ValueEncoding int

const (
	ValueEncodingPrintableString ValueEncoding = iota
	ValueEncodingUTF8String
	ValueEncodingTeletexString
	ValueEncodingUniversalString
	ValueEncodingBMPString
)

// Attribute is a single (type, value) pair of a Distinguished Name.
type Attribute struct {
	Type     AttributeType
	Encoding ValueEncoding
	Value    []byte
}

// Text decodes the attribute value to a Go string.
//
// PrintableString and UTF8String values are returned as is. BMPString values are decoded as UTF-16BE,
// UniversalString values as UTF-32BE, and TeletexString values are interpreted as UTF-8 with invalid
// sequences replaced.
//
// Returns:
//   - text (string): The textual form of the value.
func (a Attribute) Text() (text string) {
	switch a.Encoding {
	case ValueEncodingBMPString:
		decoded, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Bytes(a.Value)
		if err == nil {
			text = string(decoded)

			return
		}
	case ValueEncodingUniversalString:
		decoded, err := utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM).NewDecoder().Bytes(a.Value)
		if err == nil {
			text = string(decoded)

			return
		}
	case ValueEncodingPrintableString, ValueEncodingUTF8String:
		text = string(a.Value)

		return
	}

	text = strings.ToValidUTF8(string(a.Value), "�")

	return
}

// DistinguishedName is an ordered list of attributes. Unlike Subject it keeps duplicates.
type DistinguishedName []Attribute

// Push appends a PrintableString attribute.
func (dn *DistinguishedName) Push(attributeType AttributeType, value string) {
	*dn = append(*dn, Attribute{
		Type:     attributeType,
		Encoding: ValueEncodingPrintableString,
		Value:    []byte(value),
	})
}

// Get returns the first attribute of the given type.
func (dn DistinguishedName) Get(attributeType AttributeType) (attribute Attribute, ok bool) {
	for _, candidate := range dn {
		if candidate.Type == attributeType {
			attribute = candidate
			ok = true

			return
		}
	}

	return
}

// CommonName returns the text of the first CommonName attribute.
func (dn DistinguishedName) CommonName() (commonName string, ok bool) {
	attribute, ok := dn.Get(AttributeTypeCommonName)
	if !ok {
		return
	}

	commonName = attribute.Text()

	return
}

// PKIXName converts the list into a pkix.Name suitable for an x509.Certificate template.
// Repeated multi-valued attributes are kept in order; a repeated CommonName keeps the first value.
func (dn DistinguishedName) PKIXName() (name pkix.Name) {
	for _, attribute := range dn {
		value := attribute.Text()

		switch attribute.Type {
		case AttributeTypeCountry:
			name.Country = append(name.Country, value)
		case AttributeTypeCommonName:
			if name.CommonName == "" {
				name.CommonName = value
			}
		case AttributeTypeLocality:
			name.Locality = append(name.Locality, value)
		case AttributeTypeStateOrProvince:
			name.Province = append(name.Province, value)
		case AttributeTypeOrganization:
			name.Organization = append(name.Organization, value)
		case AttributeTypeOrganizationalUnit:
			name.OrganizationalUnit = append(name.OrganizationalUnit, value)
		}
	}

	return
}

// String renders the list as "/K=V/K=V" in list order.
func (dn DistinguishedName) String() string {
	var builder strings.Builder

	for _, attribute := range dn {
		builder.WriteString("/")
		builder.WriteString(attribute.Type.String())
		builder.WriteString("=")
		builder.WriteString(attribute.Text())
	}

	return builder.String()
}

func (dn DistinguishedName) clone() (cloned DistinguishedName) {
	if dn == nil {
		return
	}

	cloned = make(DistinguishedName, len(dn))

	for i, attribute := range dn {
		cloned[i] = Attribute{
			Type:     attribute.Type,
			Encoding: attribute.Encoding,
			Value:    append([]byte(nil), attribute.Value...),
		}
	}

	return
}
