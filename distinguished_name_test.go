package chainsmith

import (
	"encoding/asn1"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributeTypeFromKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key      string
		expected AttributeType
		oid      asn1.ObjectIdentifier
	}{
		{"C", AttributeTypeCountry, asn1.ObjectIdentifier{2, 5, 4, 6}},
		{"CN", AttributeTypeCommonName, asn1.ObjectIdentifier{2, 5, 4, 3}},
		{"L", AttributeTypeLocality, asn1.ObjectIdentifier{2, 5, 4, 7}},
		{"ST", AttributeTypeStateOrProvince, asn1.ObjectIdentifier{2, 5, 4, 8}},
		{"O", AttributeTypeOrganization, asn1.ObjectIdentifier{2, 5, 4, 10}},
		{"OU", AttributeTypeOrganizationalUnit, asn1.ObjectIdentifier{2, 5, 4, 11}},
	}

	for _, tt := range tests {
		attributeType, ok := AttributeTypeFromKey(tt.key)

		require.True(t, ok, tt.key)
		assert.Equal(t, tt.expected, attributeType)
		assert.Equal(t, tt.key, attributeType.String())
		assert.True(t, tt.oid.Equal(attributeType.OID()), tt.key)
	}

	for _, key := range []string{"", "cn", "X", "emailAddress", "postalCode"} {
		_, ok := AttributeTypeFromKey(key)

		assert.False(t, ok, key)
	}

	assert.Equal(t, "UNKNOWN", AttributeType(0).String())
}

func TestAttributeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		encoding ValueEncoding
		value    []byte
		expected string
	}{
		{"printable", ValueEncodingPrintableString, []byte("yourdomain.com"), "yourdomain.com"},
		{"utf8", ValueEncodingUTF8String, []byte("hé"), "hé"},
		{"bmp", ValueEncodingBMPString, []byte{0x00, 0x68, 0x00, 0xe9}, "hé"},
		{"universal", ValueEncodingUniversalString, []byte{0, 0, 0, 0x68, 0, 0, 0, 0xe9}, "hé"},
		{"teletex", ValueEncodingTeletexString, []byte("plain"), "plain"},
		{"teletex invalid", ValueEncodingTeletexString, []byte{'a', 0xff}, "a�"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			attribute := Attribute{Type: AttributeTypeCommonName, Encoding: tt.encoding, Value: tt.value}

			assert.Equal(t, tt.expected, attribute.Text())
		})
	}
}

func TestDistinguishedNameKeepsDuplicatesInOrder(t *testing.T) {
	t.Parallel()

	var dn DistinguishedName

	dn.Push(AttributeTypeOrganizationalUnit, "IT")
	dn.Push(AttributeTypeCommonName, "first")
	dn.Push(AttributeTypeOrganizationalUnit, "Ops")
	dn.Push(AttributeTypeCommonName, "second")

	assert.Equal(t, "/OU=IT/CN=first/OU=Ops/CN=second", dn.String())

	commonName, ok := dn.CommonName()

	require.True(t, ok)
	assert.Equal(t, "first", commonName)

	name := dn.PKIXName()

	assert.Equal(t, "first", name.CommonName)
	assert.Equal(t, []string{"IT", "Ops"}, name.OrganizationalUnit)

	_, ok = dn.Get(AttributeTypeCountry)

	assert.False(t, ok)
}

func TestDistinguishedNameCommonNameDecodesBMPString(t *testing.T) {
	t.Parallel()

	dn := DistinguishedName{
		{Type: AttributeTypeCommonName, Encoding: ValueEncodingBMPString, Value: []byte{0x00, 'c', 0x00, 'a'}},
	}

	commonName, ok := dn.CommonName()

	require.True(t, ok)
	assert.Equal(t, "ca", commonName)
}

func TestDistinguishedNamePKIXName(t *testing.T) {
	t.Parallel()

	name := ParseSubject("/C=US/ST=Utah/L=Lehi/O=Your Company, Inc./OU=IT/CN=yourdomain.com").DistinguishedName().PKIXName()

	assert.Equal(t, "yourdomain.com", name.CommonName)
	assert.Equal(t, []string{"US"}, name.Country)
	assert.Equal(t, []string{"Utah"}, name.Province)
	assert.Equal(t, []string{"Lehi"}, name.Locality)
	assert.Equal(t, []string{"Your Company, Inc."}, name.Organization)
	assert.Equal(t, []string{"IT"}, name.OrganizationalUnit)
}

func TestDistinguishedNameCloneIsIndependent(t *testing.T) {
	t.Parallel()

	var dn DistinguishedName

	dn.Push(AttributeTypeCommonName, "original")

	cloned := dn.clone()

	cloned[0].Value[0] = 'O'

	assert.Equal(t, "original", dn[0].Text())
	assert.Nil(t, DistinguishedName(nil).clone())
}
