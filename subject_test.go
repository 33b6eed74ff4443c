package chainsmith

import (
	"bytes"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseSubject(t *testing.T) {
	t.Parallel()

	subjectAsString := "/C=US/CN=yourdomain.com/L=Lehi/O=Your Company, Inc./OU=IT/ST=Utah"

	subject := ParseSubject(subjectAsString)

	assert.Equal(t, "US", subject.Get("C", "UNKNOWN"))
	assert.Equal(t, "Your Company, Inc.", subject.Get("O", "UNKNOWN"))
	assert.Equal(t, "IT", subject.Get("OU", "UNKNOWN"))
	assert.Equal(t, "UNKNOWN", subject.Get("emailAddress", "UNKNOWN"))
	assert.Equal(t, subjectAsString, subject.String())

	attribute, ok := subject.DistinguishedName().Get(AttributeTypeLocality)

	require.True(t, ok)
	assert.Equal(t, "Lehi", attribute.Text())
}

func TestParseSubjectIsLenient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"empty", "", "/"},
		{"only slashes", "///", "/"},
		{"no leading slash", "CN=foo/O=bar", "/CN=foo/O=bar"},
		{"malformed segment", "/CN=foo/garbage/O=bar", "/CN=foo/O=bar"},
		{"split on first equals", "/CN=a=b", "/CN=a=b"},
		{"empty value", "/CN=", "/CN="},
		{"last write wins", "/CN=first/CN=second", "/CN=second"},
		{"spaces kept", "/O=Your Company, Inc. ", "/O=Your Company, Inc. "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, ParseSubject(tt.raw).String())
		})
	}
}

func TestSubjectStringRoundTrip(t *testing.T) {
	t.Parallel()

	pairs := []string{"ST=Utah", "CN=yourdomain.com", "C=US", "OU=IT", "L=Lehi", "O=Your Company, Inc."}

	for rotation := range pairs {
		rotated := append(slices.Clone(pairs[rotation:]), pairs[:rotation]...)

		raw := "/" + strings.Join(rotated, "/")

		sorted := slices.Sorted(slices.Values(rotated))

		assert.Equal(t, "/"+strings.Join(sorted, "/"), ParseSubject(raw).String(), raw)
	}
}

func TestSubjectDistinguishedNameDropsUnknownKeys(t *testing.T) {
	t.Parallel()

	buffer := new(bytes.Buffer)

	logger := slog.New(slog.NewJSONHandler(buffer, nil))

	subject := ParseSubject("/X=foo/CN=bar", SubjectWithLogger(logger))

	dn := subject.DistinguishedName()

	require.Len(t, dn, 1)
	assert.Equal(t, AttributeTypeCommonName, dn[0].Type)
	assert.Equal(t, "bar", dn[0].Text())

	assert.Equal(t, "foo", subject.Get("X", ""), "unknown keys stay in the raw mapping")
	assert.Equal(t, 2, subject.Len())

	assert.Contains(t, buffer.String(), `"msg":"skipping unknown distinguished name attribute"`)
	assert.Contains(t, buffer.String(), `"key":"X"`)
	assert.Contains(t, buffer.String(), `"level":"WARN"`)
}

func TestSubjectDistinguishedNameContainsEveryRecognisedKey(t *testing.T) {
	t.Parallel()

	dn := ParseSubject("/OU=IT/ST=Utah/O=Org/L=Lehi/CN=cn/C=US").DistinguishedName()

	require.Len(t, dn, 6)

	expected := map[AttributeType]string{
		AttributeTypeCountry:            "US",
		AttributeTypeCommonName:         "cn",
		AttributeTypeLocality:           "Lehi",
		AttributeTypeStateOrProvince:    "Utah",
		AttributeTypeOrganization:       "Org",
		AttributeTypeOrganizationalUnit: "IT",
	}

	for attributeType, value := range expected {
		attribute, ok := dn.Get(attributeType)

		require.True(t, ok, attributeType.String())
		assert.Equal(t, value, attribute.Text())
	}
}

func TestSubjectMergeAndClone(t *testing.T) {
	t.Parallel()

	base := ParseSubject("/C=NL/O=Mannem Solutions/CN=chainsmith")

	cloned := base.Clone()

	cloned.Merge(ParseSubject("/CN=intermediate/OU=TLS"))

	assert.Equal(t, "/C=NL/CN=chainsmith/O=Mannem Solutions", base.String())
	assert.Equal(t, "/C=NL/CN=intermediate/O=Mannem Solutions/OU=TLS", cloned.String())
	assert.Equal(t, []string{"C", "CN", "O", "OU"}, cloned.Keys())

	cloned.Merge(nil)

	assert.Equal(t, 4, cloned.Len())
}

func TestSubjectUnmarshalYAML(t *testing.T) {
	t.Parallel()

	var fromScalar struct {
		Subject *Subject `yaml:"subject"`
	}

	require.NoError(t, yaml.Unmarshal([]byte(`subject: "/C=US/CN=yourdomain.com"`), &fromScalar))
	assert.Equal(t, "/C=US/CN=yourdomain.com", fromScalar.Subject.String())

	var fromMapping struct {
		Subject *Subject `yaml:"subject"`
	}

	require.NoError(t, yaml.Unmarshal([]byte("subject:\n  C: NL\n  ST: Zuid Holland\n  CN: chainsmith\n"), &fromMapping))
	assert.Equal(t, "/C=NL/CN=chainsmith/ST=Zuid Holland", fromMapping.Subject.String())

	var fromSequence struct {
		Subject *Subject `yaml:"subject"`
	}

	require.Error(t, yaml.Unmarshal([]byte("subject:\n  - C=NL\n"), &fromSequence))
}
